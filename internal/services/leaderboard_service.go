package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fluencyjet/sentence-master/internal/cache"
	"github.com/fluencyjet/sentence-master/internal/models"
	"github.com/fluencyjet/sentence-master/internal/period"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
	rebuildDepth            = 1000
)

// LeaderboardCache is the ranked store kept in front of the ledger queries.
type LeaderboardCache interface {
	ScoreRecorder
	Top(ctx context.Context, p period.Period, at time.Time, limit int) ([]cache.Score, error)
	Replace(ctx context.Context, p period.Period, at time.Time, scores []cache.Score) error
}

type LeaderboardEntry struct {
	Rank   int
	UserID uuid.UUID
	Name   string
	XP     int
}

type LeaderboardService struct {
	db    *gorm.DB
	cache LeaderboardCache
	now   func() time.Time
}

// NewLeaderboardService builds the service. lb may be nil, in which case every
// read goes to Postgres.
func NewLeaderboardService(db *gorm.DB, lb LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{db: db, cache: lb, now: time.Now}
}

// Top ranks users by XP earned in the period.
func (s *LeaderboardService) Top(ctx context.Context, p period.Period, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	now := s.now().UTC()

	var scores []cache.Score
	if s.cache != nil {
		cached, err := s.cache.Top(ctx, p, now, limit)
		if err != nil {
			slog.Warn("leaderboard cache read failed", "period", string(p), "error", err)
		} else {
			scores = cached
		}
	}

	if len(scores) == 0 {
		fromDB, err := s.scores(ctx, p, now, limit)
		if err != nil {
			return nil, err
		}
		scores = fromDB
	}

	return s.entries(ctx, scores)
}

// Rebuild refills every cached window from the ledger.
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	now := s.now().UTC()
	for _, p := range period.All {
		scores, err := s.scores(ctx, p, now, rebuildDepth)
		if err != nil {
			return err
		}
		if err := s.cache.Replace(ctx, p, now, scores); err != nil {
			return fmt.Errorf("rebuild %s leaderboard: %w", p, err)
		}
	}
	slog.Info("leaderboard cache rebuilt")
	return nil
}

type scoreRow struct {
	UserID uuid.UUID
	XP     int
}

func (s *LeaderboardService) scores(ctx context.Context, p period.Period, now time.Time, limit int) ([]cache.Score, error) {
	var rows []scoreRow
	db := s.db.WithContext(ctx)

	var err error
	if p == period.AllTime {
		err = db.Model(&models.UserProgress{}).
			Select("user_id, lifetime_xp AS xp").
			Where("lifetime_xp > 0").
			Order("lifetime_xp DESC").
			Order("user_id ASC").
			Limit(limit).
			Scan(&rows).Error
	} else {
		err = db.Model(&models.XPEvent{}).
			Select("user_id, SUM(delta) AS xp").
			Where("created_at >= ?", p.Start(now)).
			Group("user_id").
			Having("SUM(delta) > 0").
			Order("xp DESC").
			Order("user_id ASC").
			Limit(limit).
			Scan(&rows).Error
	}
	if err != nil {
		return nil, storageErr("rank "+string(p), err)
	}

	scores := make([]cache.Score, len(rows))
	for i, r := range rows {
		scores[i] = cache.Score{UserID: r.UserID, XP: r.XP}
	}
	return scores, nil
}

func (s *LeaderboardService) entries(ctx context.Context, scores []cache.Score) ([]LeaderboardEntry, error) {
	if len(scores) == 0 {
		return []LeaderboardEntry{}, nil
	}

	ids := make([]uuid.UUID, len(scores))
	for i, sc := range scores {
		ids[i] = sc.UserID
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Select("id", "email", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, storageErr("load leaderboard users", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = DisplayName(&u)
	}

	entries := make([]LeaderboardEntry, 0, len(scores))
	for _, sc := range scores {
		name, ok := names[sc.UserID]
		if !ok {
			// deleted user still in the cache
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:   len(entries) + 1,
			UserID: sc.UserID,
			Name:   name,
			XP:     sc.XP,
		})
	}
	return entries, nil
}

// DisplayName is the user's name, or the local part of the email.
func DisplayName(u *models.User) string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}
