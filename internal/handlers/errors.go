package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/services"
)

const genericServerMessage = "Server error, please try again later"

// errorStatus maps sentinel errors to their HTTP status and machine code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{services.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{services.ErrItemNotFound, fiber.StatusNotFound, "ITEM_NOT_FOUND"},
	{services.ErrImageNotFound, fiber.StatusNotFound, "IMAGE_NOT_FOUND"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND"},
	{services.ErrSelfMessage, fiber.StatusBadRequest, "SELF_MESSAGE"},
	{services.ErrInvalidAction, fiber.StatusBadRequest, "INVALID_ACTION"},
	{services.ErrInvalidTransition, fiber.StatusBadRequest, "INVALID_TRANSITION"},
	{services.ErrInvalidItemType, fiber.StatusBadRequest, "INVALID_ITEM_TYPE"},
}

// respondError writes the error body for err. Unknown errors are logged in
// full and reported to the client only as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		code := "INVALID_INPUT"
		switch {
		case errors.Is(err, services.ErrDuplicateField):
			code = "DUPLICATE_FIELD"
		case len(verr.MissingFields) > 0:
			code = "MISSING_FIELDS"
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:         true,
			Message:       verr.Error(),
			Code:          code,
			Fields:        verr.Fields,
			MissingFields: verr.MissingFields,
		})
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(dto.ErrorResponse{
				Error: true, Message: e.err.Error(), Code: e.code,
			})
		}
	}

	if errors.Is(err, services.ErrAIService) {
		slog.Warn("ai provider failed", "path", c.Path(), "error", err.Error(), "request_id", requestID(c))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "AI service is temporarily unavailable", Code: "AI_SERVICE_ERROR",
		})
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err.Error(), "request_id", requestID(c))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: genericServerMessage, Code: "SERVER_ERROR",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message, Code: "INVALID_INPUT",
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized", Code: "MISSING_TOKEN",
	})
}

func success(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(dto.Envelope{Success: true, Data: data, Message: message})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return ""
}

// ErrorHandler is the fiber-level fallback for errors and panics that
// escaped a handler. 5xx details never reach the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := genericServerMessage
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error(), "request_id", requestID(c))
		message = genericServerMessage
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}
