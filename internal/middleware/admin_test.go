package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluencyjet/sentence-master/internal/config"
)

func adminApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/admin", JWTProtected(cfg), AdminRequired(nil, cfg), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func token(t *testing.T, secret, sub, email string) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func status(t *testing.T, app *fiber.App, auth, adminToken string) int {
	req := httptest.NewRequest("GET", "/admin", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if adminToken != "" {
		req.Header.Set("X-Admin-Token", adminToken)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAdminRequired(t *testing.T) {
	adminID := uuid.New()
	cfg := &config.Config{
		JWTSecret:    "mw-secret",
		AdminEmails:  "Ops@Example.com, ",
		AdminUserIDs: adminID.String(),
		AdminToken:   "tok-123",
	}
	app := adminApp(cfg)

	t.Run("listed email", func(t *testing.T) {
		assert.Equal(t, fiber.StatusOK, status(t, app, token(t, "mw-secret", uuid.NewString(), "ops@example.com"), ""))
	})

	t.Run("listed user id", func(t *testing.T) {
		assert.Equal(t, fiber.StatusOK, status(t, app, token(t, "mw-secret", adminID.String(), "x@example.com"), ""))
	})

	t.Run("admin token", func(t *testing.T) {
		assert.Equal(t, fiber.StatusOK, status(t, app, token(t, "mw-secret", uuid.NewString(), "x@example.com"), "tok-123"))
	})

	t.Run("ordinary user", func(t *testing.T) {
		assert.Equal(t, fiber.StatusForbidden, status(t, app, token(t, "mw-secret", uuid.NewString(), "x@example.com"), "wrong"))
	})

	t.Run("bad signature", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, status(t, app, token(t, "other", adminID.String(), "ops@example.com"), ""))
	})
}
