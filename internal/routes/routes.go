package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/shiwutong/lostfound-backend/internal/config"
	"github.com/shiwutong/lostfound-backend/internal/handlers"
	"github.com/shiwutong/lostfound-backend/internal/metrics"
	"github.com/shiwutong/lostfound-backend/internal/middleware"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/shiwutong/lostfound-backend/internal/session"
	"gorm.io/gorm"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	Item       *handlers.ItemHandler
	Moderation *handlers.ModerationHandler
	Favorite   *handlers.FavoriteHandler
	Message    *handlers.MessageHandler
	AI         *handlers.AIHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	issuer *session.Issuer,
	m *metrics.Metrics,
	uploadDir string,
	h Handlers,
) {
	app.Get("/metrics", m.Handler())
	app.Static("/uploads", uploadDir, fiber.Static{MaxAge: 3600})

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Credential endpoints: 10 req/min per IP
	authLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/register", authLimit, h.Auth.Register)
	api.Post("/login", authLimit, h.Auth.Login)

	protected := middleware.JWTProtected(issuer)
	optional := middleware.JWTOptional(issuer)
	adminOnly := middleware.AdminRequired(db, cfg)

	api.Get("/users", optional, adminOnly, h.Auth.ListUsers)

	// Listings
	for _, kind := range []models.Kind{models.KindLost, models.KindFound} {
		base := "/" + string(kind) + "-items"
		api.Get(base, h.Item.List(kind))
		api.Post(base, optional, h.Item.Create(kind))
		api.Get(base+"/:itemId", optional, h.Item.Detail(kind))
	}
	api.Get("/images/:itemId", optional, h.Item.Image)

	// Favorites
	api.Post("/favorites", protected, h.Favorite.Toggle)
	api.Get("/favorites", protected, h.Favorite.List)
	api.Get("/favorites/check", protected, h.Favorite.Check)

	// Ownership verification
	ai := api.Group("/ai", optional)
	ai.Get("/keywords/:itemType/:itemId", h.AI.Keywords)
	ai.Get("/questions/:itemType/:itemId", h.AI.Questions)
	ai.Post("/validate/:itemType/:itemId", h.AI.Validate)

	// Messaging
	api.Get("/conversations", protected, h.Message.ListConversations)
	api.Post("/conversations", protected, h.Message.CreateConversation)
	api.Get("/conversations/:id/messages", protected, h.Message.GetMessages)
	api.Post("/messages", protected, h.Message.Send)

	// Moderation queue (admin token or admin session)
	admin := api.Group("/admin", optional, adminOnly)
	admin.Get("/items/:itemType", h.Moderation.Queue)
	admin.Put("/items/:itemType/:itemId/status", h.Moderation.Transition)
}
