package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MinAward = -100000
	MaxAward = 100000
)

// EventType is the canonical classification of an XP ledger row.
type EventType string

const (
	EventQuestionCorrect EventType = "QUESTION_CORRECT"
	EventQuizCompleted   EventType = "QUIZ_COMPLETED"
	EventDailyStreak     EventType = "DAILY_STREAK"
	EventAdminAdjust     EventType = "ADMIN_ADJUST"
	EventGeneric         EventType = "GENERIC"
)

var eventAliases = map[string]EventType{
	"QUESTION_CORRECT": EventQuestionCorrect,
	"CORRECT_ANSWER":   EventQuestionCorrect,
	"ANSWER_CORRECT":   EventQuestionCorrect,
	"CORRECT":          EventQuestionCorrect,
	"QUIZ_COMPLETED":   EventQuizCompleted,
	"QUIZ_COMPLETE":    EventQuizCompleted,
	"QUIZ_DONE":        EventQuizCompleted,
	"LESSON_COMPLETED": EventQuizCompleted,
	"DAILY_STREAK":     EventDailyStreak,
	"STREAK":           EventDailyStreak,
	"STREAK_BONUS":     EventDailyStreak,
	"ADMIN_ADJUST":     EventAdminAdjust,
	"ADMIN_ADJUSTMENT": EventAdminAdjust,
	"ADJUST":           EventAdminAdjust,
	"GENERIC":          EventGeneric,
}

// NormalizeEventType maps a client-supplied event name onto its canonical
// tag. "quiz-completed", "Quiz Completed" and "QUIZ_COMPLETED" are the same
// event. Unknown names come back as GENERIC with known=false.
func NormalizeEventType(raw string) (EventType, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(key)
	if t, ok := eventAliases[key]; ok {
		return t, true
	}
	return EventGeneric, false
}

// ParseAmount accepts a JSON number or a numeric string and truncates it
// toward zero.
func ParseAmount(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, ErrInvalidAmount
	}

	var f float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, ErrInvalidAmount
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		f = v
	} else if err := json.Unmarshal(raw, &f); err != nil {
		return 0, ErrInvalidAmount
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	f = math.Trunc(f)
	if f < MinAward || f > MaxAward {
		return 0, ErrInvalidAmount
	}

	amount := int(f)
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// ValidateAmount enforces the award bounds on an already-integral amount.
func ValidateAmount(amount int) error {
	if amount == 0 || amount < MinAward || amount > MaxAward {
		return ErrInvalidAmount
	}
	return nil
}

func validateIdempotencyKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if len(key) > 100 {
		return "", fmt.Errorf("%w: idempotency key longer than 100 characters", ErrInvalidInput)
	}
	return key, nil
}
