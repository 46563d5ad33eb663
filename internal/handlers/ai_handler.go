package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/metrics"
	"github.com/shiwutong/lostfound-backend/internal/services"
)

type AIHandler struct {
	aiService   *services.AIService
	itemService *services.ItemService
	metrics     *metrics.Metrics
}

func NewAIHandler(aiService *services.AIService, itemService *services.ItemService, m *metrics.Metrics) *AIHandler {
	return &AIHandler{aiService: aiService, itemService: itemService, metrics: m}
}

func (h *AIHandler) Keywords(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := idParam(c, "itemId")
	if err != nil {
		return respondError(c, services.ErrItemNotFound)
	}

	_, description, err := h.itemService.Description(c.UserContext(), kind, id, viewer(c))
	if err != nil {
		return respondError(c, err)
	}

	keywords, err := h.aiService.ExtractKeywords(c.UserContext(), description)
	if err != nil {
		h.countFailure("keywords", err)
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"itemId":      id,
		"itemType":    kind,
		"description": description,
		"keywords":    keywords,
	}, "Keywords extracted")
}

func (h *AIHandler) Questions(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := idParam(c, "itemId")
	if err != nil {
		return respondError(c, services.ErrItemNotFound)
	}

	title, description, err := h.itemService.Description(c.UserContext(), kind, id, viewer(c))
	if err != nil {
		return respondError(c, err)
	}

	set, err := h.aiService.GenerateQuestions(c.UserContext(), title, description)
	if err != nil {
		h.countFailure("questions", err)
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"itemId":    id,
		"itemType":  kind,
		"title":     title,
		"questions": set.Questions,
		"keywords":  set.Keywords,
		"fallback":  set.Fallback,
	}, "Questions generated")
}

// Validate checks an ownership answer against the keywords the client was
// given with the questions. The attempt is recorded either way.
func (h *AIHandler) Validate(c *fiber.Ctx) error {
	kind, err := kindParam(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := idParam(c, "itemId")
	if err != nil {
		return respondError(c, services.ErrItemNotFound)
	}

	var req dto.ValidateAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	valid, err := h.aiService.CheckAnswer(c.UserContext(), kind, id, req.Answer, req.Keywords)
	if err != nil {
		return respondError(c, err)
	}

	result := "rejected"
	if valid {
		result = "accepted"
	}
	h.metrics.Verifications.WithLabelValues(result).Inc()

	return success(c, fiber.StatusOK, fiber.Map{
		"itemId":          id,
		"itemType":        kind,
		"isValid":         valid,
		"userAnswer":      req.Answer,
		"checkedKeywords": req.Keywords,
	}, "")
}

func (h *AIHandler) countFailure(op string, err error) {
	if errors.Is(err, services.ErrAIService) {
		h.metrics.AIFailures.WithLabelValues(op).Inc()
	}
}
