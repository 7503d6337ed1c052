package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/period"
	"github.com/fluencyjet/sentence-master/internal/services"
)

type Leaderboard interface {
	Top(ctx context.Context, p period.Period, limit int) ([]services.LeaderboardEntry, error)
}

type LeaderboardHandler struct {
	board Leaderboard
}

func NewLeaderboardHandler(board Leaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// Top handles GET /api/leaderboard?period=&limit=. The period defaults to
// weekly.
func (h *LeaderboardHandler) Top(c *fiber.Ctx) error {
	p := period.Weekly
	if raw := c.Query("period"); raw != "" {
		parsed, ok := period.Parse(raw)
		if !ok {
			return errorJSON(c, fiber.StatusBadRequest, "period must be one of today, weekly, monthly, all")
		}
		p = parsed
	}

	entries, err := h.board.Top(c.UserContext(), p, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, "leaderboard.top", err)
	}

	out := make([]dto.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = dto.LeaderboardEntry{Rank: e.Rank, UserID: e.UserID, Name: e.Name, XP: e.XP}
	}
	return c.JSON(dto.LeaderboardResponse{Period: string(p), Entries: out})
}
