package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/identity"
	"github.com/fluencyjet/sentence-master/internal/models"
	"github.com/fluencyjet/sentence-master/internal/services"
)

// XPLedger is the part of the XP service the HTTP layer needs.
type XPLedger interface {
	Award(ctx context.Context, userID uuid.UUID, in services.AwardInput) (*services.Balance, error)
	Balance(ctx context.Context, userID uuid.UUID) (*services.Balance, error)
	RecentEvents(ctx context.Context, userID uuid.UUID, limit int) ([]models.XPEvent, error)
}

type XPHandler struct {
	xp XPLedger
}

func NewXPHandler(xp XPLedger) *XPHandler {
	return &XPHandler{xp: xp}
}

// Balance handles GET /api/xp/balance.
func (h *XPHandler) Balance(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	b, err := h.xp.Balance(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "xp.balance", err)
	}
	return c.JSON(balanceResponse(b))
}

// Award handles POST /api/xp/award. The idempotency key may come from the
// body or the Idempotency-Key header; the body wins.
func (h *XPHandler) Award(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.AwardRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	amount, err := services.ParseAmount(req.Amount)
	if err != nil {
		return respondError(c, "xp.award", err)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = c.Get("Idempotency-Key")
	}

	b, err := h.xp.Award(c.UserContext(), userID, services.AwardInput{
		Amount:         amount,
		Event:          req.Event,
		Meta:           req.Meta,
		IdempotencyKey: key,
	})
	if err != nil {
		return respondError(c, "xp.award", err)
	}

	status := fiber.StatusCreated
	if b.Duplicate {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(balanceResponse(b))
}

// Events handles GET /api/xp/events?limit=.
func (h *XPHandler) Events(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	events, err := h.xp.RecentEvents(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, "xp.events", err)
	}

	out := make([]dto.XPEventResponse, len(events))
	for i, e := range events {
		out[i] = dto.XPEventResponse{
			ID:        e.ID,
			Type:      e.Type,
			Delta:     e.Delta,
			Meta:      json.RawMessage(e.Meta),
			CreatedAt: e.CreatedAt,
		}
	}
	return c.JSON(fiber.Map{"events": out})
}

func balanceResponse(b *services.Balance) dto.BalanceResponse {
	return dto.BalanceResponse{
		WeekXP:     b.WeekXP,
		MonthXP:    b.MonthXP,
		LifetimeXP: b.LifetimeXP,
		TotalXP:    b.TotalXP,
		Duplicate:  b.Duplicate,
	}
}
