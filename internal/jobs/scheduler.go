// Package jobs runs the periodic maintenance tasks of the server.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"

	"github.com/fluencyjet/sentence-master/internal/logging"
)

const jobTimeout = 5 * time.Minute

// PeriodReconciler zeroes week/month counters that belong to an earlier period.
type PeriodReconciler interface {
	ReconcilePeriods(ctx context.Context) (weeks, months int64, err error)
}

type LeaderboardRebuilder interface {
	Rebuild(ctx context.Context) error
}

// Scheduler owns the gocron scheduler and the jobs registered on it.
type Scheduler struct {
	scheduler     *gocron.Scheduler
	db            *gorm.DB
	retentionDays int
	periods       PeriodReconciler
	leaderboard   LeaderboardRebuilder
}

// New builds a scheduler in UTC. leaderboard may be nil when no cache is
// configured.
func New(db *gorm.DB, retentionDays int, periods PeriodReconciler, leaderboard LeaderboardRebuilder) *Scheduler {
	return &Scheduler{
		scheduler:     gocron.NewScheduler(time.UTC),
		db:            db,
		retentionDays: retentionDays,
		periods:       periods,
		leaderboard:   leaderboard,
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(1).Day().At("03:00").Do(s.CleanupLogs); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At("00:05").Do(s.ReconcilePeriods); err != nil {
		return err
	}
	if s.leaderboard != nil {
		if _, err := s.scheduler.Every(1).Hour().Do(s.RebuildLeaderboard); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler started", "jobs", len(s.scheduler.Jobs()))
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CleanupLogs applies the system log retention window.
func (s *Scheduler) CleanupLogs() {
	deleted, err := logging.CleanupSystemLogs(s.db, s.retentionDays)
	if err != nil {
		slog.Error("log cleanup failed", "action", "jobs.log_cleanup", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
}

func (s *Scheduler) ReconcilePeriods() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	weeks, months, err := s.periods.ReconcilePeriods(ctx)
	if err != nil {
		slog.Error("period reconciliation failed", "action", "jobs.reconcile", "error", err)
		return
	}
	if weeks > 0 || months > 0 {
		slog.Info("xp periods reconciled", "weekly_reset", weeks, "monthly_reset", months)
	}
}

func (s *Scheduler) RebuildLeaderboard() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.leaderboard.Rebuild(ctx); err != nil {
		slog.Error("leaderboard rebuild failed", "action", "jobs.leaderboard", "error", err)
	}
}
