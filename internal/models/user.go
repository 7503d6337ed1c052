package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plans a user can hold. Anything else is treated as free.
const (
	PlanFree         = "free"
	PlanBeginner     = "beginner"
	PlanIntermediate = "intermediate"
	PlanPro          = "pro"
	PlanAll          = "all"
	PlanPaid         = "paid"
)

// Tracks (difficulty lanes) used for placement and tier gating.
const (
	TrackBeginner     = "BEGINNER"
	TrackIntermediate = "INTERMEDIATE"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Name      string         `gorm:"size:120" json:"name"`
	Password  string         `gorm:"not null" json:"-"`
	Role      string         `gorm:"size:20;default:'user'" json:"role"`
	Plan      string         `gorm:"size:30;not null;default:'free'" json:"plan"`
	TierLevel string         `gorm:"size:30;default:'free'" json:"tier_level"`
	HasAccess bool           `gorm:"default:false" json:"has_access"`
	Placement string         `gorm:"size:20" json:"placement"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
