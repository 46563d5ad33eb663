package middleware

import (
	"crypto/subtle"

	"github.com/shiwutong/lostfound-backend/internal/config"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/shiwutong/lostfound-backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminRequired admits a request that either carries the configured
// X-Admin-Token or belongs to a user whose token claims admin and whose
// stored role is still admin. It must run after JWTOptional or JWTProtected.
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			if subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(cfg.AdminToken)) == 1 {
				return c.Next()
			}
		}

		userID, err := session.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: session.ErrMissingToken.Error(), Code: "MISSING_TOKEN",
			})
		}

		if session.IsAdmin(c) {
			var user models.User
			if err := db.WithContext(c.UserContext()).Select("id", "role").First(&user, userID).Error; err == nil && user.IsAdmin() {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required", Code: "ADMIN_REQUIRED",
		})
	}
}
