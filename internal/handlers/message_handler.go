package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/metrics"
	"github.com/shiwutong/lostfound-backend/internal/services"
	"github.com/shiwutong/lostfound-backend/internal/session"
)

type MessageHandler struct {
	messageService *services.MessageService
	metrics        *metrics.Metrics
}

func NewMessageHandler(messageService *services.MessageService, m *metrics.Metrics) *MessageHandler {
	return &MessageHandler{messageService: messageService, metrics: m}
}

func (h *MessageHandler) ListConversations(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	convs, err := h.messageService.ListConversations(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, convs, "")
}

func (h *MessageHandler) CreateConversation(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	conv, err := h.messageService.CreateConversation(c.UserContext(), userID, req.ReceiverID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, conv, "")
}

// GetMessages returns the history and marks the caller's incoming messages read.
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	convID, err := idParam(c, "id")
	if err != nil {
		return respondError(c, services.ErrForbidden)
	}

	messages, err := h.messageService.GetMessages(c.UserContext(), convID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, messages, "")
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	msg, err := h.messageService.SendMessage(c.UserContext(), userID, req.ReceiverID, req.Content)
	if err != nil {
		return respondError(c, err)
	}

	h.metrics.MessagesSent.Inc()
	return success(c, fiber.StatusCreated, msg, "Message sent")
}
