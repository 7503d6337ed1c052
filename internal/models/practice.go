package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PracticeDay is a numbered lesson at one difficulty.
type PracticeDay struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DayNumber  int                `gorm:"not null;uniqueIndex:idx_practice_days_number_difficulty,priority:1" json:"day_number"`
	Difficulty string             `gorm:"size:20;not null;uniqueIndex:idx_practice_days_number_difficulty,priority:2" json:"difficulty"`
	Title      string             `gorm:"size:255" json:"title"`
	CreatedAt  time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Exercises  []PracticeExercise `gorm:"foreignKey:PracticeDayID" json:"exercises,omitempty"`
}

type PracticeExercise struct {
	ID            uuid.UUID                          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PracticeDayID uuid.UUID                          `gorm:"type:uuid;not null;uniqueIndex:idx_practice_exercises_slot,priority:1" json:"practice_day_id"`
	Type          string                             `gorm:"size:30;not null;uniqueIndex:idx_practice_exercises_slot,priority:2" json:"type"`
	OrderIndex    int                                `gorm:"not null;uniqueIndex:idx_practice_exercises_slot,priority:3" json:"order_index"`
	TamilPrompt   string                             `gorm:"type:text" json:"tamil_prompt"`
	Expected      datatypes.JSONType[ExpectedAnswer] `gorm:"type:jsonb" json:"expected"`
	CreatedAt     time.Time                          `json:"created_at"`
	UpdatedAt     time.Time                          `json:"updated_at"`
}

// ExpectedAnswer describes what a correct answer looks like.
type ExpectedAnswer struct {
	Words    []string `json:"words"`
	Mode     string   `json:"mode"`
	Sentence string   `json:"sentence"`
}
