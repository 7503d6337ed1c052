package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/models"
)

type dayKey struct {
	number     int
	difficulty string
}

// ExerciseImportService upserts practice content. Days are keyed by
// (day_number, difficulty), exercises by (day, type, order_index), so running
// the same import twice changes nothing.
type ExerciseImportService struct {
	db *gorm.DB
}

func NewExerciseImportService(db *gorm.DB) *ExerciseImportService {
	return &ExerciseImportService{db: db}
}

// Import applies all valid rows in one transaction. Invalid rows are skipped
// and reported; a storage failure rolls everything back.
func (s *ExerciseImportService) Import(ctx context.Context, rows []dto.BulkExerciseRow) (*dto.BulkImportResponse, error) {
	result := &dto.BulkImportResponse{Errors: make([]string, 0)}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to import", ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		days := make(map[dayKey]*models.PracticeDay)

		for i, row := range rows {
			if err := validateRow(&row); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
				continue
			}

			day, created, err := s.day(tx, days, &row)
			if err != nil {
				return err
			}
			if created {
				result.DaysCreated++
			}

			updated, err := s.upsertExercise(tx, day.ID, &row)
			if err != nil {
				return err
			}
			if updated {
				result.ExercisesUpdated++
			} else {
				result.ExercisesCreated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("import exercises", err)
	}

	slog.Info("exercises imported",
		"action", "admin.import",
		"days_created", result.DaysCreated,
		"created", result.ExercisesCreated,
		"updated", result.ExercisesUpdated,
		"skipped", result.Skipped,
	)
	return result, nil
}

func validateRow(row *dto.BulkExerciseRow) error {
	if row.DayNumber <= 0 {
		return errors.New("day_number must be positive")
	}
	track := NormalizeTrack(row.Difficulty)
	if track == "" {
		return fmt.Errorf("unknown difficulty %q", row.Difficulty)
	}
	row.Difficulty = strings.ToLower(track)

	row.Type = strings.ToLower(strings.TrimSpace(row.Type))
	if row.Type != ModeTyping && row.Type != ModeReorder {
		return fmt.Errorf("type must be %s or %s", ModeTyping, ModeReorder)
	}
	if row.OrderIndex < 0 {
		return errors.New("order_index must not be negative")
	}
	if len(row.Words) == 0 && strings.TrimSpace(row.Sentence) == "" {
		return errors.New("either words or sentence is required")
	}
	if len(row.Words) == 0 {
		row.Words = strings.Fields(row.Sentence)
	}
	if row.Sentence == "" {
		row.Sentence = strings.Join(row.Words, " ")
	}
	if row.Mode == "" {
		row.Mode = row.Type
	}
	return nil
}

func (s *ExerciseImportService) day(tx *gorm.DB, cache map[dayKey]*models.PracticeDay, row *dto.BulkExerciseRow) (*models.PracticeDay, bool, error) {
	k := dayKey{number: row.DayNumber, difficulty: row.Difficulty}
	if d, ok := cache[k]; ok {
		return d, false, nil
	}

	var day models.PracticeDay
	err := tx.Where("day_number = ? AND difficulty = ?", k.number, k.difficulty).First(&day).Error
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		day = models.PracticeDay{
			ID:         uuid.New(),
			DayNumber:  k.number,
			Difficulty: k.difficulty,
			Title:      row.DayTitle,
		}
		if err := tx.Create(&day).Error; err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, err
	case row.DayTitle != "" && row.DayTitle != day.Title:
		if err := tx.Model(&day).Update("title", row.DayTitle).Error; err != nil {
			return nil, false, err
		}
	}

	cache[k] = &day
	return &day, created, nil
}

func (s *ExerciseImportService) upsertExercise(tx *gorm.DB, dayID uuid.UUID, row *dto.BulkExerciseRow) (bool, error) {
	expected := datatypes.NewJSONType(models.ExpectedAnswer{
		Words:    row.Words,
		Mode:     row.Mode,
		Sentence: row.Sentence,
	})

	var existing models.PracticeExercise
	err := tx.Where("practice_day_id = ? AND type = ? AND order_index = ?", dayID, row.Type, row.OrderIndex).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ex := models.PracticeExercise{
			ID:            uuid.New(),
			PracticeDayID: dayID,
			Type:          row.Type,
			OrderIndex:    row.OrderIndex,
			TamilPrompt:   row.TamilPrompt,
			Expected:      expected,
		}
		return false, tx.Create(&ex).Error
	}
	if err != nil {
		return false, err
	}

	return true, tx.Model(&existing).Updates(map[string]interface{}{
		"tamil_prompt": row.TamilPrompt,
		"expected":     expected,
	}).Error
}
