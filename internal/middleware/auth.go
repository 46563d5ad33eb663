package middleware

import (
	"errors"

	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/session"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected requires a valid session token.
func JWTProtected(issuer *session.Issuer) fiber.Handler {
	return jwtware.New(jwtConfig(issuer, nil))
}

// JWTOptional lets anonymous requests through but still rejects a
// present-but-bad Authorization header.
func JWTOptional(issuer *session.Issuer) fiber.Handler {
	return jwtware.New(jwtConfig(issuer, func(c *fiber.Ctx) bool {
		return c.Get(fiber.HeaderAuthorization) == ""
	}))
}

func jwtConfig(issuer *session.Issuer, filter func(*fiber.Ctx) bool) jwtware.Config {
	return jwtware.Config{
		Filter:       filter,
		KeyFunc:      issuer.Keyfunc,
		Claims:       &session.Claims{},
		ContextKey:   session.ContextKey,
		ErrorHandler: authError,
	}
}

// authError tells a missing or malformed header (401) apart from a token
// that failed verification (403).
func authError(c *fiber.Ctx, _ error) error {
	if _, err := session.ParseAuthorization(c.Get(fiber.HeaderAuthorization)); err != nil {
		code := "MALFORMED_TOKEN"
		if errors.Is(err, session.ErrMissingToken) {
			code = "MISSING_TOKEN"
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(), Code: code,
		})
	}
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: session.ErrInvalidToken.Error(), Code: "INVALID_TOKEN",
	})
}
