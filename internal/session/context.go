package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is where the JWT middleware stores the parsed *jwt.Token.
const ContextKey = "user"

func claimsFrom(c *fiber.Ctx) (*Claims, bool) {
	token, ok := c.Locals(ContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == 0 {
		return nil, false
	}
	return claims, true
}

// GetUserID extracts the caller's user id from the verified token in context.
func GetUserID(c *fiber.Ctx) (uint, error) {
	claims, ok := claimsFrom(c)
	if !ok {
		return 0, errors.New("invalid token in context")
	}
	return claims.UserID, nil
}

// OptionalUserID returns nil for anonymous callers.
func OptionalUserID(c *fiber.Ctx) *uint {
	claims, ok := claimsFrom(c)
	if !ok {
		return nil
	}
	id := claims.UserID
	return &id
}

// IsAdmin reports the admin flag carried by the session token.
func IsAdmin(c *fiber.Ctx) bool {
	claims, ok := claimsFrom(c)
	return ok && claims.IsAdmin
}
