package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fluencyjet/sentence-master/internal/models"
)

const (
	defaultRandomLimit = 10
	maxRandomLimit     = 50
	randomPoolDays     = 30
)

// Exercise modes.
const (
	ModeTyping  = "typing"
	ModeReorder = "reorder"
)

type ByLessonQuery struct {
	LessonID   int
	Difficulty string
	Mode       string
}

type RandomQuery struct {
	LessonID   int
	Difficulty string
	Limit      int
}

// ExerciseItem is an exercise together with the lesson it belongs to.
type ExerciseItem struct {
	models.PracticeExercise
	DayNumber  int
	Difficulty string
}

// LessonView is the legacy lesson listing projected from practice days.
type LessonView struct {
	Slug       string
	Title      string
	Difficulty string
	DayNumber  int
	IsLocked   bool
}

// ContentService selects practice exercises after the access resolver has
// approved the request.
type ContentService struct {
	db           *gorm.DB
	resolver     *AccessResolver
	strictRandom bool
	shuffle      func(n int, swap func(i, j int))
}

func NewContentService(db *gorm.DB, resolver *AccessResolver, strictRandom bool) *ContentService {
	return &ContentService{
		db:           db,
		resolver:     resolver,
		strictRandom: strictRandom,
		shuffle:      rand.Shuffle,
	}
}

// ByLesson returns one lesson's exercises in stored order, filtered by mode.
func (s *ContentService) ByLesson(ctx context.Context, userID uuid.UUID, q ByLessonQuery) ([]ExerciseItem, error) {
	if q.LessonID <= 0 {
		return nil, fmt.Errorf("%w: lessonId must be a positive integer", ErrInvalidInput)
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision := s.resolver.Resolve(user, q.LessonID, q.Difficulty)
	if !decision.Allowed {
		return nil, &PaywallError{Decision: decision}
	}

	day, err := s.findDay(ctx, q.LessonID, strings.ToLower(decision.Track))
	if err != nil {
		return nil, err
	}

	var exercises []models.PracticeExercise
	err = s.db.WithContext(ctx).
		Where("practice_day_id = ?", day.ID).
		Order("order_index ASC").
		Order("type ASC").
		Find(&exercises).Error
	if err != nil {
		return nil, storageErr("list exercises", err)
	}

	exercises = FilterByMode(exercises, q.Mode)
	return withDay(exercises, map[uuid.UUID]models.PracticeDay{day.ID: *day}), nil
}

// Random samples up to Limit exercises. With a lesson id the pool is that
// lesson, checked by the resolver; without one the pool spans the most recent
// lessons at the difficulty.
func (s *ContentService) Random(ctx context.Context, userID uuid.UUID, q RandomQuery) ([]ExerciseItem, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRandomLimit
	}
	if limit > maxRandomLimit {
		limit = maxRandomLimit
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var days []models.PracticeDay
	if q.LessonID > 0 {
		decision := s.resolver.Resolve(user, q.LessonID, q.Difficulty)
		if !decision.Allowed {
			return nil, &PaywallError{Decision: decision}
		}
		day, err := s.findDay(ctx, q.LessonID, strings.ToLower(decision.Track))
		if err != nil {
			return nil, err
		}
		days = []models.PracticeDay{*day}
	} else {
		difficulty := contentDifficulty(q.Difficulty, UserTrack(user, q.Difficulty))
		err := s.db.WithContext(ctx).
			Where("difficulty = ?", difficulty).
			Order("created_at DESC").
			Order("day_number DESC").
			Limit(randomPoolDays).
			Find(&days).Error
		if err != nil {
			return nil, storageErr("list practice days", err)
		}
		if s.strictRandom {
			days = s.allowedDays(user, days)
		}
	}

	if len(days) == 0 {
		return []ExerciseItem{}, nil
	}

	byID := make(map[uuid.UUID]models.PracticeDay, len(days))
	ids := make([]uuid.UUID, 0, len(days))
	for _, d := range days {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	var pool []models.PracticeExercise
	if err := s.db.WithContext(ctx).Where("practice_day_id IN ?", ids).Find(&pool).Error; err != nil {
		return nil, storageErr("list exercise pool", err)
	}

	return withDay(Sample(pool, limit, s.shuffle), byID), nil
}

// Lessons lists practice days as legacy lessons with the caller's lock state.
func (s *ContentService) Lessons(ctx context.Context, userID uuid.UUID, difficulty string) ([]LessonView, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Order("difficulty ASC").Order("day_number ASC")
	if track := NormalizeTrack(difficulty); track != "" {
		query = query.Where("difficulty = ?", strings.ToLower(track))
	}

	var days []models.PracticeDay
	if err := query.Find(&days).Error; err != nil {
		return nil, storageErr("list lessons", err)
	}

	views := make([]LessonView, len(days))
	for i, d := range days {
		title := d.Title
		if title == "" {
			title = "Lesson " + strconv.Itoa(d.DayNumber)
		}
		views[i] = LessonView{
			Slug:       d.Difficulty + "-" + strconv.Itoa(d.DayNumber),
			Title:      title,
			Difficulty: d.Difficulty,
			DayNumber:  d.DayNumber,
			IsLocked:   !s.resolver.Resolve(user, d.DayNumber, d.Difficulty).Allowed,
		}
	}
	return views, nil
}

func (s *ContentService) allowedDays(user *models.User, days []models.PracticeDay) []models.PracticeDay {
	allowed := days[:0]
	for _, d := range days {
		if s.resolver.Resolve(user, d.DayNumber, d.Difficulty).Allowed {
			allowed = append(allowed, d)
		}
	}
	return allowed
}

func (s *ContentService) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr("load user", err)
	}
	return &user, nil
}

func (s *ContentService) findDay(ctx context.Context, dayNumber int, difficulty string) (*models.PracticeDay, error) {
	var day models.PracticeDay
	err := s.db.WithContext(ctx).
		Where("day_number = ? AND difficulty = ?", dayNumber, difficulty).
		First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: lesson %d (%s)", ErrNotFound, dayNumber, difficulty)
	}
	if err != nil {
		return nil, storageErr("find practice day", err)
	}
	return &day, nil
}

// contentDifficulty picks the stored difficulty for a request: the explicit
// one when valid, otherwise the resolved track.
func contentDifficulty(requested, track string) string {
	if t := NormalizeTrack(requested); t != "" {
		return strings.ToLower(t)
	}
	return strings.ToLower(track)
}

// FilterByMode keeps exercises of the requested mode. A reorder request also
// takes typing exercises whose answer has several words, since those can be
// shuffled into a reorder puzzle. An empty mode keeps everything.
func FilterByMode(exercises []models.PracticeExercise, mode string) []models.PracticeExercise {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return exercises
	}

	result := make([]models.PracticeExercise, 0, len(exercises))
	for _, ex := range exercises {
		exType := strings.ToLower(ex.Type)
		switch {
		case exType == mode:
			result = append(result, ex)
		case mode == ModeReorder && exType == ModeTyping && isMultiWord(ex.Expected.Data()):
			result = append(result, ex)
		}
	}
	return result
}

func isMultiWord(a models.ExpectedAnswer) bool {
	return len(a.Words) > 1 || len(strings.Fields(a.Sentence)) > 1
}

// Sample shuffles a copy of pool with shuffle (Fisher–Yates) and keeps the
// first limit entries.
func Sample(pool []models.PracticeExercise, limit int, shuffle func(n int, swap func(i, j int))) []models.PracticeExercise {
	picked := make([]models.PracticeExercise, len(pool))
	copy(picked, pool)
	shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if limit < len(picked) {
		picked = picked[:limit]
	}
	return picked
}

func withDay(exercises []models.PracticeExercise, days map[uuid.UUID]models.PracticeDay) []ExerciseItem {
	items := make([]ExerciseItem, len(exercises))
	for i, ex := range exercises {
		d := days[ex.PracticeDayID]
		items[i] = ExerciseItem{PracticeExercise: ex, DayNumber: d.DayNumber, Difficulty: d.Difficulty}
	}
	return items
}
