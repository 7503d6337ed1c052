package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// XPEvent is one immutable row of the XP ledger.
type XPEvent struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_xp_events_user_created,priority:1;uniqueIndex:idx_xp_events_user_key,priority:1" json:"user_id"`
	Type           string         `gorm:"size:32;not null" json:"type"`
	Delta          int            `gorm:"not null" json:"delta"`
	Meta           datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"meta"`
	IdempotencyKey *string        `gorm:"size:100;uniqueIndex:idx_xp_events_user_key,priority:2" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index:idx_xp_events_user_created,priority:2;index" json:"created_at"`
}

func (XPEvent) TableName() string {
	return "xp_events"
}

// UserProgress is the single per-user XP aggregate. WeekKey and MonthKey hold
// the UTC start of the period the WeekXP and MonthXP counters belong to.
type UserProgress struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	WeekXP       int       `gorm:"not null;default:0" json:"week_xp"`
	MonthXP      int       `gorm:"not null;default:0" json:"month_xp"`
	LifetimeXP   int       `gorm:"not null;default:0;index" json:"lifetime_xp"`
	TotalXP      int       `gorm:"not null;default:0" json:"total_xp"`
	WeekKey      time.Time `gorm:"not null" json:"week_key"`
	MonthKey     time.Time `gorm:"not null" json:"month_key"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	User         User      `gorm:"foreignKey:UserID" json:"-"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
