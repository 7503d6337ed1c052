package dto

import "github.com/google/uuid"

// BulkExerciseRow is one exercise in an admin bulk import.
type BulkExerciseRow struct {
	DayNumber   int      `json:"day_number"`
	Difficulty  string   `json:"difficulty"`
	DayTitle    string   `json:"day_title"`
	Type        string   `json:"type"`
	OrderIndex  int      `json:"order_index"`
	TamilPrompt string   `json:"tamil_prompt"`
	Words       []string `json:"words"`
	Mode        string   `json:"mode"`
	Sentence    string   `json:"sentence"`
}

type BulkImportResponse struct {
	DaysCreated      int      `json:"days_created"`
	ExercisesCreated int      `json:"exercises_created"`
	ExercisesUpdated int      `json:"exercises_updated"`
	Skipped          int      `json:"skipped"`
	Errors           []string `json:"errors"`
}

type TierUpdateRequest struct {
	Plan      *string `json:"plan"`
	HasAccess *bool   `json:"has_access"`
	Placement *string `json:"placement"`
}

type AdminAdjustRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Amount int       `json:"amount"`
	Reason string    `json:"reason"`
}
