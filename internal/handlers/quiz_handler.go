package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/identity"
	"github.com/fluencyjet/sentence-master/internal/services"
)

// ContentSelector is the part of the content service the HTTP layer needs.
type ContentSelector interface {
	ByLesson(ctx context.Context, userID uuid.UUID, q services.ByLessonQuery) ([]services.ExerciseItem, error)
	Random(ctx context.Context, userID uuid.UUID, q services.RandomQuery) ([]services.ExerciseItem, error)
	Lessons(ctx context.Context, userID uuid.UUID, difficulty string) ([]services.LessonView, error)
}

type QuizHandler struct {
	content ContentSelector
}

func NewQuizHandler(content ContentSelector) *QuizHandler {
	return &QuizHandler{content: content}
}

// ByLesson handles GET /api/quizzes/by-lesson/:lessonId?difficulty=&mode=.
func (h *QuizHandler) ByLesson(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	lessonID, err := strconv.Atoi(c.Params("lessonId"))
	if err != nil || lessonID <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "lessonId must be a positive integer")
	}

	items, err := h.content.ByLesson(c.UserContext(), userID, services.ByLessonQuery{
		LessonID:   lessonID,
		Difficulty: c.Query("difficulty"),
		Mode:       c.Query("mode"),
	})
	if err != nil {
		return respondError(c, "quiz.by_lesson", err)
	}
	return c.JSON(quizResponse(items))
}

// Random handles GET /api/quizzes/random?difficulty=&lessonId=&limit=.
// A lessonId that is not a positive integer is ignored.
func (h *QuizHandler) Random(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	lessonID := 0
	if raw := strings.TrimSpace(c.Query("lessonId")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			lessonID = n
		}
	}

	items, err := h.content.Random(c.UserContext(), userID, services.RandomQuery{
		LessonID:   lessonID,
		Difficulty: c.Query("difficulty"),
		Limit:      c.QueryInt("limit", 0),
	})
	if err != nil {
		return respondError(c, "quiz.random", err)
	}
	return c.JSON(quizResponse(items))
}

// Lessons handles GET /api/lessons?difficulty=.
func (h *QuizHandler) Lessons(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	lessons, err := h.content.Lessons(c.UserContext(), userID, c.Query("difficulty"))
	if err != nil {
		return respondError(c, "lessons.list", err)
	}

	out := make([]dto.LessonResponse, len(lessons))
	for i, l := range lessons {
		out[i] = dto.LessonResponse{
			Slug:       l.Slug,
			Title:      l.Title,
			Difficulty: l.Difficulty,
			DayNumber:  l.DayNumber,
			IsLocked:   l.IsLocked,
		}
	}
	return c.JSON(fiber.Map{"lessons": out})
}

func quizResponse(items []services.ExerciseItem) dto.QuizResponse {
	out := make([]dto.ExerciseResponse, len(items))
	for i, it := range items {
		expected := it.Expected.Data()
		out[i] = dto.ExerciseResponse{
			ID:          it.ID,
			LessonID:    it.DayNumber,
			Difficulty:  it.Difficulty,
			Type:        it.Type,
			OrderIndex:  it.OrderIndex,
			TamilPrompt: it.TamilPrompt,
			Expected: dto.ExpectedAnswer{
				Words:    expected.Words,
				Mode:     expected.Mode,
				Sentence: expected.Sentence,
			},
		}
	}
	return dto.QuizResponse{OK: true, Count: len(out), Exercises: out}
}
