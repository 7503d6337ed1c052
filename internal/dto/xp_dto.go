package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AwardRequest struct {
	Amount         json.RawMessage        `json:"amount"`
	Event          string                 `json:"event"`
	Meta           map[string]interface{} `json:"meta"`
	IdempotencyKey string                 `json:"idempotency_key"`
}

type BalanceResponse struct {
	WeekXP     int  `json:"week_xp"`
	MonthXP    int  `json:"month_xp"`
	LifetimeXP int  `json:"lifetime_xp"`
	TotalXP    int  `json:"total_xp"`
	Duplicate  bool `json:"duplicate,omitempty"`
}

type XPEventResponse struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Delta     int             `json:"delta"`
	Meta      json.RawMessage `json:"meta"`
	CreatedAt time.Time       `json:"created_at"`
}

type LeaderboardEntry struct {
	Rank   int       `json:"rank"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	XP     int       `json:"xp"`
}

type LeaderboardResponse struct {
	Period  string             `json:"period"`
	Entries []LeaderboardEntry `json:"entries"`
}
