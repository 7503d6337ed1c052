package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fluencyjet/sentence-master/internal/models"
	"github.com/fluencyjet/sentence-master/internal/period"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 200
)

// AwardInput is one request to move a user's XP.
type AwardInput struct {
	Amount         int
	Event          string
	Meta           map[string]interface{}
	IdempotencyKey string
}

// Balance is the user's XP as seen at one instant.
type Balance struct {
	WeekXP     int
	MonthXP    int
	LifetimeXP int
	TotalXP    int
	// Duplicate is set when an idempotency key matched an earlier award.
	Duplicate bool
}

// ScoreRecorder receives every applied award after commit.
type ScoreRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, delta int, at time.Time) error
}

// XPService is the XP ledger: an append-only event table plus one
// aggregate row per user, written together in a single transaction.
type XPService struct {
	db           *gorm.DB
	recorder     ScoreRecorder
	strictEvents bool
	now          func() time.Time
}

func NewXPService(db *gorm.DB, recorder ScoreRecorder, strictEvents bool) *XPService {
	return &XPService{
		db:           db,
		recorder:     recorder,
		strictEvents: strictEvents,
		now:          time.Now,
	}
}

const upsertProgressSQL = `
INSERT INTO user_progress (user_id, week_xp, month_xp, lifetime_xp, total_xp, week_key, month_key, last_activity, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
	week_xp = CASE WHEN user_progress.week_key = EXCLUDED.week_key
		THEN user_progress.week_xp + EXCLUDED.week_xp ELSE EXCLUDED.week_xp END,
	month_xp = CASE WHEN user_progress.month_key = EXCLUDED.month_key
		THEN user_progress.month_xp + EXCLUDED.month_xp ELSE EXCLUDED.month_xp END,
	lifetime_xp = user_progress.lifetime_xp + EXCLUDED.lifetime_xp,
	total_xp = user_progress.total_xp + EXCLUDED.total_xp,
	week_key = EXCLUDED.week_key,
	month_key = EXCLUDED.month_key,
	last_activity = EXCLUDED.last_activity,
	updated_at = EXCLUDED.updated_at
RETURNING user_id, week_xp, month_xp, lifetime_xp, total_xp, week_key, month_key, last_activity`

// Award appends one ledger row and applies its delta to the user's
// aggregates. Counters are incremented in SQL so concurrent awards for the
// same user never overwrite each other.
func (s *XPService) Award(ctx context.Context, userID uuid.UUID, in AwardInput) (*Balance, error) {
	if err := ValidateAmount(in.Amount); err != nil {
		return nil, err
	}

	eventType, known := NormalizeEventType(in.Event)
	if !known && s.strictEvents {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, in.Event)
	}

	key, err := validateIdempotencyKey(in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{}, len(in.Meta)+1)
	for k, v := range in.Meta {
		fields[k] = v
	}
	if !known && strings.TrimSpace(in.Event) != "" {
		fields["raw_event"] = in.Event
	}

	meta := datatypes.JSON("{}")
	if len(fields) > 0 {
		b, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: meta is not serializable", ErrInvalidInput)
		}
		meta = datatypes.JSON(b)
	}

	now := s.now().UTC()
	weekKey := period.WeekStart(now)
	monthKey := period.MonthStart(now)

	var progress models.UserProgress
	duplicate := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := models.XPEvent{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      string(eventType),
			Delta:     in.Amount,
			Meta:      meta,
			CreatedAt: now,
		}
		if key != "" {
			event.IdempotencyKey = &key
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			duplicate = true
			return tx.Where("user_id = ?", userID).First(&progress).Error
		}

		return tx.Raw(upsertProgressSQL,
			userID, in.Amount, in.Amount, in.Amount, in.Amount,
			weekKey, monthKey, now, now, now,
		).Scan(&progress).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		slog.Error("xp award failed", "user_id", userID.String(), "action", "xp.award", "error", err)
		return nil, storageErr("award xp", err)
	}

	if duplicate {
		slog.Info("xp award replayed", "user_id", userID.String(), "idempotency_key", key)
	} else if s.recorder != nil {
		if err := s.recorder.Record(ctx, userID, in.Amount, now); err != nil {
			slog.Warn("leaderboard cache update failed", "user_id", userID.String(), "error", err)
		}
	}

	b := balanceAt(&progress, now)
	b.Duplicate = duplicate
	return b, nil
}

// Balance returns the user's XP, creating a zeroed aggregate row on first
// read. Week and month counters stamped with an older period read as zero.
func (s *XPService) Balance(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	now := s.now().UTC()
	db := s.db.WithContext(ctx)

	fresh := models.UserProgress{
		UserID:       userID,
		WeekKey:      period.WeekStart(now),
		MonthKey:     period.MonthStart(now),
		LastActivity: now,
	}
	if err := db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("create progress", err)
	}

	var progress models.UserProgress
	if err := db.Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, storageErr("read progress", err)
	}
	return balanceAt(&progress, now), nil
}

// RecentEvents lists the user's ledger rows, newest first.
func (s *XPService) RecentEvents(ctx context.Context, userID uuid.UUID, limit int) ([]models.XPEvent, error) {
	limit = clampEventsLimit(limit)

	var events []models.XPEvent
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, storageErr("list xp events", err)
	}
	return events, nil
}

// ReconcilePeriods zeroes week and month counters left over from earlier
// periods so stored rows match what Balance reports.
func (s *XPService) ReconcilePeriods(ctx context.Context) (weeks, months int64, err error) {
	now := s.now().UTC()
	weekKey := period.WeekStart(now)
	monthKey := period.MonthStart(now)
	db := s.db.WithContext(ctx)

	res := db.Model(&models.UserProgress{}).
		Where("week_key < ?", weekKey).
		UpdateColumns(map[string]interface{}{"week_xp": 0, "week_key": weekKey})
	if res.Error != nil {
		return 0, 0, storageErr("reset weekly xp", res.Error)
	}
	weeks = res.RowsAffected

	res = db.Model(&models.UserProgress{}).
		Where("month_key < ?", monthKey).
		UpdateColumns(map[string]interface{}{"month_xp": 0, "month_key": monthKey})
	if res.Error != nil {
		return weeks, 0, storageErr("reset monthly xp", res.Error)
	}
	return weeks, res.RowsAffected, nil
}

func balanceAt(p *models.UserProgress, now time.Time) *Balance {
	b := &Balance{
		WeekXP:     p.WeekXP,
		MonthXP:    p.MonthXP,
		LifetimeXP: p.LifetimeXP,
		TotalXP:    p.TotalXP,
	}
	if p.WeekKey.Before(period.WeekStart(now)) {
		b.WeekXP = 0
	}
	if p.MonthKey.Before(period.MonthStart(now)) {
		b.MonthXP = 0
	}
	return b
}

func clampEventsLimit(limit int) int {
	if limit <= 0 {
		return defaultEventsLimit
	}
	if limit > maxEventsLimit {
		return maxEventsLimit
	}
	return limit
}
