package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/services"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// Queue lists listings of one kind in a moderation status, oldest first.
// Without ?status the pending queue is returned.
func (h *ModerationHandler) Queue(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return respondError(c, err)
	}

	items, page, err := h.moderationService.ListByStatus(c.UserContext(), kind, c.Query("status"), c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, dto.ListResponse{Items: items, Pagination: page}, "")
}

func (h *ModerationHandler) Transition(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := idParam(c, "itemId")
	if err != nil {
		return respondError(c, services.ErrItemNotFound)
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return respondError(c, &services.ValidationError{MissingFields: []string{"status"}})
	}

	item, err := h.moderationService.Transition(c.UserContext(), kind, id, req.Status, req.Note)
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("listing moderated", "item_id", id, "item_type", string(kind), "status", item.Status, "request_id", requestID(c))
	return success(c, fiber.StatusOK, item, "Status updated")
}
