package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fluencyjet/sentence-master/internal/dto"
)

type PaymentEventHandler interface {
	HandleWebhookEvent(ctx context.Context, event *dto.PaymentWebhook) error
}

type WebhookHandler struct {
	subscriptions PaymentEventHandler
	secret        string
}

func NewWebhookHandler(subscriptions PaymentEventHandler, secret string) *WebhookHandler {
	return &WebhookHandler{subscriptions: subscriptions, secret: secret}
}

// HandlePayment handles POST /api/webhooks/payment. The body must be signed
// with X-Signature: hex(hmac-sha256(secret, body)).
func (h *WebhookHandler) HandlePayment(c *fiber.Ctx) error {
	if h.secret == "" {
		return errorJSON(c, fiber.StatusNotFound, "Webhooks not configured")
	}

	body := c.Body()
	if !ValidSignature(h.secret, body, c.Get("X-Signature")) {
		return unauthorized(c)
	}

	var event dto.PaymentWebhook
	if err := json.Unmarshal(body, &event); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid webhook payload")
	}

	if err := h.subscriptions.HandleWebhookEvent(c.UserContext(), &event); err != nil {
		slog.Error("webhook processing failed", "event_type", event.Event, "id", event.ID, "error", err)
		return respondError(c, "webhook.payment", err)
	}

	slog.Info("webhook processed", "event_type", event.Event, "id", event.ID)
	return c.JSON(fiber.Map{"received": true})
}

// ValidSignature compares the hex HMAC-SHA256 of body in constant time.
func ValidSignature(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
