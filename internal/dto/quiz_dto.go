package dto

import "github.com/google/uuid"

type ExpectedAnswer struct {
	Words    []string `json:"words"`
	Mode     string   `json:"mode"`
	Sentence string   `json:"sentence"`
}

type ExerciseResponse struct {
	ID          uuid.UUID      `json:"id"`
	LessonID    int            `json:"lesson_id"`
	Difficulty  string         `json:"difficulty"`
	Type        string         `json:"type"`
	OrderIndex  int            `json:"order_index"`
	TamilPrompt string         `json:"tamil_prompt"`
	Expected    ExpectedAnswer `json:"expected"`
}

type QuizResponse struct {
	OK        bool               `json:"ok"`
	Count     int                `json:"count"`
	Exercises []ExerciseResponse `json:"exercises"`
}

// PaywallResponse is the 403 body returned when the resolver denies access.
type PaywallResponse struct {
	OK          bool          `json:"ok"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	FreeLessons interface{}   `json:"freeLessons"`
	NextAction  PaywallAction `json:"nextAction"`
}

type PaywallAction struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	From string `json:"from"`
}

type LessonResponse struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	DayNumber  int    `json:"day_number"`
	IsLocked   bool   `json:"is_locked"`
}
