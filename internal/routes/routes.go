package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/fluencyjet/sentence-master/internal/config"
	"github.com/fluencyjet/sentence-master/internal/handlers"
	"github.com/fluencyjet/sentence-master/internal/identity"
	"github.com/fluencyjet/sentence-master/internal/middleware"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Health      *handlers.HealthHandler
	XP          *handlers.XPHandler
	Quiz        *handlers.QuizHandler
	Leaderboard *handlers.LeaderboardHandler
	Admin       *handlers.AdminHandler
	Webhook     *handlers.WebhookHandler
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	authLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	auth.Post("/signup", authLimit, h.Auth.Signup)
	auth.Post("/login", authLimit, h.Auth.Login)
	auth.Post("/refresh", authLimit, h.Auth.Refresh)

	jwt := middleware.JWTProtected(cfg)
	auth.Post("/logout", jwt, h.Auth.Logout)
	auth.Get("/me", jwt, h.Auth.Me)

	api.Put("/users/me/placement", jwt, h.Auth.SetPlacement)

	// Award limit is per user, not per IP
	xp := api.Group("/xp", jwt)
	xp.Get("/balance", h.XP.Balance)
	xp.Post("/award", limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      userOrIP,
	}), h.XP.Award)
	xp.Get("/events", h.XP.Events)

	quizzes := api.Group("/quizzes", jwt)
	quizzes.Get("/random", h.Quiz.Random)
	quizzes.Get("/by-lesson/:lessonId", h.Quiz.ByLesson)

	api.Get("/lessons", jwt, h.Quiz.Lessons)
	api.Get("/leaderboard", jwt, h.Leaderboard.Top)

	admin := api.Group("/admin", jwt, middleware.AdminRequired(db, cfg))
	admin.Post("/exercises/bulk", h.Admin.BulkExercises)
	admin.Post("/exercises/upload", h.Admin.UploadExercises)
	admin.Put("/users/:id/tier", h.Admin.UpdateTier)
	admin.Post("/xp/adjust", h.Admin.AdjustXP)
	admin.Post("/leaderboard/rebuild", h.Admin.RebuildLeaderboard)

	// Webhooks are signed, no JWT
	api.Post("/webhooks/payment", h.Webhook.HandlePayment)
}

func userOrIP(c *fiber.Ctx) string {
	if id, err := identity.GetUserID(c); err == nil {
		return "user:" + id.String()
	}
	return c.IP()
}
