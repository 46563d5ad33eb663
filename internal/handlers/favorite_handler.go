package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/metrics"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/shiwutong/lostfound-backend/internal/services"
	"github.com/shiwutong/lostfound-backend/internal/session"
)

type FavoriteHandler struct {
	favoriteService *services.FavoriteService
	metrics         *metrics.Metrics
}

func NewFavoriteHandler(favoriteService *services.FavoriteService, m *metrics.Metrics) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService, metrics: m}
}

func (h *FavoriteHandler) Toggle(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.ToggleFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ItemID == 0 {
		return respondError(c, &services.ValidationError{MissingFields: []string{"itemId"}})
	}
	kind, ok := models.ParseKind(req.Type)
	if !ok {
		return respondError(c, services.ErrInvalidItemType)
	}

	changed, err := h.favoriteService.Toggle(c.UserContext(), userID, req.ItemID, kind, req.Action)
	if err != nil {
		return respondError(c, err)
	}

	if changed {
		h.metrics.FavoriteChanges.WithLabelValues(req.Action).Inc()
	}
	message := "Added to favorites"
	if req.Action == services.ActionUnfavorite {
		message = "Removed from favorites"
	}
	return success(c, fiber.StatusOK, dto.ToggleFavoriteResponse{
		Favorited: req.Action == services.ActionFavorite,
		Changed:   changed,
	}, message)
}

func (h *FavoriteHandler) Check(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	itemID := c.QueryInt("itemId", 0)
	if itemID <= 0 {
		return respondError(c, &services.ValidationError{MissingFields: []string{"itemId"}})
	}
	kind, ok := models.ParseKind(c.Query("type"))
	if !ok {
		return respondError(c, services.ErrInvalidItemType)
	}

	favorited, err := h.favoriteService.IsFavorited(c.UserContext(), userID, uint(itemID), kind)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"isFavorited": favorited}, "")
}

func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var kind *models.Kind
	if raw := c.Query("type"); raw != "" {
		k, ok := models.ParseKind(raw)
		if !ok {
			return respondError(c, services.ErrInvalidItemType)
		}
		kind = &k
	}

	items, page, err := h.favoriteService.List(c.UserContext(), userID, c.QueryInt("page", 1), c.QueryInt("limit", 0), kind)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, dto.ListResponse{Items: items, Pagination: page}, "")
}
