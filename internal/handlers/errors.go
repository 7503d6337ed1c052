package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/services"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
}

func badBody(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
}

// respondError maps a service error onto the HTTP response. Storage and
// unexpected failures are logged and reported without detail.
func respondError(c *fiber.Ctx, action string, err error) error {
	var paywall *services.PaywallError
	switch {
	case errors.As(err, &paywall):
		return c.Status(fiber.StatusForbidden).JSON(PaywallBody(paywall.Decision))
	case errors.Is(err, services.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(), Code: "INVALID_AMOUNT",
		})
	case errors.Is(err, services.ErrInvalidInput):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}

	slog.Error("request failed",
		"action", action,
		"request_id", requestID(c),
		"method", c.Method(),
		"path", c.Path(),
		"error", err.Error(),
	)
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

// PaywallBody renders a resolver denial as the 403 body.
func PaywallBody(d services.AccessDecision) dto.PaywallResponse {
	return dto.PaywallResponse{
		OK:          false,
		Code:        "PAYWALL",
		Message:     d.Message,
		FreeLessons: d.FreeLessons,
		NextAction: dto.PaywallAction{
			Type: "UPGRADE",
			URL:  d.RedirectURL,
			From: d.From,
		},
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
