package services

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/fluencyjet/sentence-master/internal/cache"
	"github.com/fluencyjet/sentence-master/internal/config"
	"github.com/fluencyjet/sentence-master/internal/database"
	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/models"
	"github.com/fluencyjet/sentence-master/internal/period"
)

func checkDockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// setupTestDB starts Postgres in a container and migrates it.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) *gorm.DB {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(connStr)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, plan string) *models.User {
	u := &models.User{
		ID:       uuid.New(),
		Email:    name + "@example.com",
		Name:     name,
		Password: "x",
		Plan:     plan,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

type recordedScore struct {
	userID uuid.UUID
	delta  int
}

type fakeRecorder struct {
	mu     sync.Mutex
	scores []recordedScore
}

func (f *fakeRecorder) Record(_ context.Context, userID uuid.UUID, delta int, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = append(f.scores, recordedScore{userID, delta})
	return nil
}

func TestXPLedgerIntegration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("new user reads zeros", func(t *testing.T) {
		svc := NewXPService(db, nil, false)
		u := createUser(t, db, "zero", models.PlanFree)

		b, err := svc.Balance(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, Balance{}, *b)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		rec := &fakeRecorder{}
		svc := NewXPService(db, rec, false)
		ghost := uuid.New()

		_, err := svc.Award(ctx, ghost, AwardInput{Amount: 10, Event: "generic"})
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.NotErrorIs(t, err, ErrStorageUnavailable)
		assert.Empty(t, rec.scores)

		_, err = svc.Balance(ctx, ghost)
		assert.ErrorIs(t, err, ErrUserNotFound)

		var events int64
		require.NoError(t, db.Model(&models.XPEvent{}).Where("user_id = ?", ghost).Count(&events).Error)
		assert.Zero(t, events)
	})

	t.Run("award is applied once and recorded", func(t *testing.T) {
		rec := &fakeRecorder{}
		svc := NewXPService(db, rec, false)
		u := createUser(t, db, "award", models.PlanFree)

		b, err := svc.Award(ctx, u.ID, AwardInput{Amount: 150, Event: "question-correct"})
		require.NoError(t, err)
		assert.Equal(t, 150, b.LifetimeXP)
		assert.Equal(t, 150, b.WeekXP)
		assert.Equal(t, 150, b.MonthXP)
		assert.Equal(t, 150, b.TotalXP)

		read, err := svc.Balance(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 150, read.LifetimeXP)

		events, err := svc.RecentEvents(ctx, u.ID, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, string(EventQuestionCorrect), events[0].Type)
		assert.Equal(t, []recordedScore{{u.ID, 150}}, rec.scores)
	})

	t.Run("sum of deltas equals lifetime", func(t *testing.T) {
		svc := NewXPService(db, nil, false)
		u := createUser(t, db, "sum", models.PlanFree)

		deltas := []int{10, -3, 250, 7, -40}
		want := 0
		for _, d := range deltas {
			want += d
			_, err := svc.Award(ctx, u.ID, AwardInput{Amount: d, Event: "generic"})
			require.NoError(t, err)
		}

		b, err := svc.Balance(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, want, b.LifetimeXP)
		assert.Equal(t, want, b.TotalXP)

		var sum int
		require.NoError(t, db.Model(&models.XPEvent{}).Select("COALESCE(SUM(delta),0)").Where("user_id = ?", u.ID).Scan(&sum).Error)
		assert.Equal(t, want, sum)
	})

	t.Run("concurrent awards are not lost", func(t *testing.T) {
		svc := NewXPService(db, nil, false)
		u := createUser(t, db, "parallel", models.PlanFree)

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Award(ctx, u.ID, AwardInput{Amount: 10, Event: "correct"})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		b, err := svc.Balance(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 10*n, b.LifetimeXP)
		assert.Equal(t, 10*n, b.WeekXP)
	})

	t.Run("idempotency key replays", func(t *testing.T) {
		rec := &fakeRecorder{}
		svc := NewXPService(db, rec, false)
		u := createUser(t, db, "idem", models.PlanFree)

		first, err := svc.Award(ctx, u.ID, AwardInput{Amount: 25, Event: "quiz_completed", IdempotencyKey: "quiz-1"})
		require.NoError(t, err)
		assert.False(t, first.Duplicate)

		again, err := svc.Award(ctx, u.ID, AwardInput{Amount: 25, Event: "quiz_completed", IdempotencyKey: "quiz-1"})
		require.NoError(t, err)
		assert.True(t, again.Duplicate)
		assert.Equal(t, 25, again.LifetimeXP)

		_, err = svc.Award(ctx, u.ID, AwardInput{Amount: 25, Event: "quiz_completed"})
		require.NoError(t, err)
		_, err = svc.Award(ctx, u.ID, AwardInput{Amount: 25, Event: "quiz_completed"})
		require.NoError(t, err)

		b, err := svc.Balance(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 75, b.LifetimeXP)
		assert.Len(t, rec.scores, 3)
	})

	t.Run("strict mode rejects unknown events", func(t *testing.T) {
		svc := NewXPService(db, nil, true)
		u := createUser(t, db, "strict", models.PlanFree)

		_, err := svc.Award(ctx, u.ID, AwardInput{Amount: 5, Event: "watched_video"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		var count int64
		db.Model(&models.XPEvent{}).Where("user_id = ?", u.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("permissive mode keeps the unknown name", func(t *testing.T) {
		svc := NewXPService(db, nil, false)
		u := createUser(t, db, "permissive", models.PlanFree)

		_, err := svc.Award(ctx, u.ID, AwardInput{Amount: 5, Event: "watched_video"})
		require.NoError(t, err)

		events, err := svc.RecentEvents(ctx, u.ID, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, string(EventGeneric), events[0].Type)
		assert.Contains(t, string(events[0].Meta), `"raw_event":"watched_video"`)
	})

	t.Run("period rollover", func(t *testing.T) {
		svc := NewXPService(db, nil, false)
		u := createUser(t, db, "rollover", models.PlanFree)

		lastMonth := time.Date(2026, 9, 28, 10, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return lastMonth }
		_, err := svc.Award(ctx, u.ID, AwardInput{Amount: 40, Event: "streak"})
		require.NoError(t, err)

		now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		b, err := svc.Balance(ctx, u.ID)
		require.NoError(t, err)
		assert.Zero(t, b.WeekXP)
		assert.Zero(t, b.MonthXP)
		assert.Equal(t, 40, b.LifetimeXP)

		b, err = svc.Award(ctx, u.ID, AwardInput{Amount: 5, Event: "streak"})
		require.NoError(t, err)
		assert.Equal(t, 5, b.WeekXP)
		assert.Equal(t, 5, b.MonthXP)
		assert.Equal(t, 45, b.LifetimeXP)
	})

	t.Run("reconcile zeroes stale counters", func(t *testing.T) {
		svc := NewXPService(db, nil, false)
		u := createUser(t, db, "reconcile", models.PlanFree)

		svc.now = func() time.Time { return time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC) }
		_, err := svc.Award(ctx, u.ID, AwardInput{Amount: 60, Event: "generic"})
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
		weeks, months, err := svc.ReconcilePeriods(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, weeks, int64(1))
		assert.GreaterOrEqual(t, months, int64(1))

		var p models.UserProgress
		require.NoError(t, db.First(&p, "user_id = ?", u.ID).Error)
		assert.Zero(t, p.WeekXP)
		assert.Zero(t, p.MonthXP)
		assert.Equal(t, 60, p.LifetimeXP)
	})
}

func seedLesson(t *testing.T, db *gorm.DB, day int, difficulty string, exercises int) {
	rows := make([]dto.BulkExerciseRow, exercises)
	for i := range rows {
		rows[i] = dto.BulkExerciseRow{
			DayNumber:  day,
			Difficulty: difficulty,
			Type:       ModeTyping,
			OrderIndex: i,
			Sentence:   "I am learning English",
		}
	}
	_, err := NewExerciseImportService(db).Import(context.Background(), rows)
	require.NoError(t, err)
}

func TestContentSelectorIntegration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewContentService(db, testResolver(), false)

	seedLesson(t, db, 1, "beginner", 4)
	seedLesson(t, db, 4, "beginner", 12)
	seedLesson(t, db, 13, "intermediate", 3)

	free := createUser(t, db, "free", models.PlanFree)
	require.NoError(t, db.Model(free).Update("placement", models.TrackBeginner).Error)
	pro := createUser(t, db, "pro", models.PlanPro)

	t.Run("by lesson returns ordered exercises", func(t *testing.T) {
		items, err := svc.ByLesson(ctx, free.ID, ByLessonQuery{LessonID: 1, Difficulty: "beginner"})
		require.NoError(t, err)
		require.Len(t, items, 4)
		for i, it := range items {
			assert.Equal(t, i, it.OrderIndex)
			assert.Equal(t, 1, it.DayNumber)
		}

		reorder, err := svc.ByLesson(ctx, free.ID, ByLessonQuery{LessonID: 1, Difficulty: "beginner", Mode: "reorder"})
		require.NoError(t, err)
		assert.Len(t, reorder, 4)
	})

	t.Run("by lesson beyond free allowance is paywalled", func(t *testing.T) {
		_, err := svc.ByLesson(ctx, free.ID, ByLessonQuery{LessonID: 4, Difficulty: "beginner"})
		var pw *PaywallError
		require.ErrorAs(t, err, &pw)
		assert.Equal(t, 3, pw.Decision.FreeLessons)
	})

	t.Run("by lesson serves the track it gated", func(t *testing.T) {
		mid := createUser(t, db, "mid", models.PlanFree)
		require.NoError(t, db.Model(mid).Update("placement", models.TrackIntermediate).Error)

		items, err := svc.ByLesson(ctx, mid.ID, ByLessonQuery{LessonID: 1, Difficulty: "beginner"})
		require.NoError(t, err)
		require.Len(t, items, 4)
		for _, it := range items {
			assert.Equal(t, "beginner", it.Difficulty)
		}

		lessons, err := svc.Lessons(ctx, mid.ID, "beginner")
		require.NoError(t, err)
		require.Len(t, lessons, 2)
		assert.False(t, lessons[0].IsLocked)
		assert.True(t, lessons[1].IsLocked)

		_, err = svc.ByLesson(ctx, free.ID, ByLessonQuery{LessonID: 1, Difficulty: "intermediate"})
		var pw *PaywallError
		require.ErrorAs(t, err, &pw)
		assert.Equal(t, models.TrackIntermediate, pw.Decision.Track)
	})

	t.Run("invalid and missing lessons", func(t *testing.T) {
		_, err := svc.ByLesson(ctx, pro.ID, ByLessonQuery{LessonID: 0})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.ByLesson(ctx, pro.ID, ByLessonQuery{LessonID: 99, Difficulty: "beginner"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("random samples distinct exercises", func(t *testing.T) {
		items, err := svc.Random(ctx, pro.ID, RandomQuery{Difficulty: "beginner", Limit: 10})
		require.NoError(t, err)
		require.Len(t, items, 10)
		seen := make(map[uuid.UUID]bool)
		for _, it := range items {
			assert.False(t, seen[it.ID])
			seen[it.ID] = true
			assert.Equal(t, "beginner", it.Difficulty)
		}
	})

	t.Run("random with lesson id is gated", func(t *testing.T) {
		_, err := svc.Random(ctx, free.ID, RandomQuery{LessonID: 4, Difficulty: "beginner"})
		var pw *PaywallError
		assert.ErrorAs(t, err, &pw)

		items, err := svc.Random(ctx, free.ID, RandomQuery{LessonID: 1, Difficulty: "beginner", Limit: 50})
		require.NoError(t, err)
		assert.Len(t, items, 4)
	})

	t.Run("strict random only uses allowed lessons", func(t *testing.T) {
		strict := NewContentService(db, testResolver(), true)
		items, err := strict.Random(ctx, free.ID, RandomQuery{Difficulty: "beginner", Limit: 50})
		require.NoError(t, err)
		require.Len(t, items, 4)
		for _, it := range items {
			assert.Equal(t, 1, it.DayNumber)
		}
	})

	t.Run("lessons carry lock state", func(t *testing.T) {
		lessons, err := svc.Lessons(ctx, free.ID, "beginner")
		require.NoError(t, err)
		require.Len(t, lessons, 2)
		assert.Equal(t, "beginner-1", lessons[0].Slug)
		assert.False(t, lessons[0].IsLocked)
		assert.True(t, lessons[1].IsLocked)
	})
}

func TestExerciseImportIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewExerciseImportService(db)

	rows := []dto.BulkExerciseRow{
		{DayNumber: 2, Difficulty: "Beginner", DayTitle: "Food", Type: "typing", OrderIndex: 0, Sentence: "I like rice"},
		{DayNumber: 2, Difficulty: "beginner", Type: "reorder", OrderIndex: 0, Words: []string{"I", "like", "tea"}},
		{DayNumber: 2, Difficulty: "advanced", Type: "typing", OrderIndex: 1, Sentence: "x"},
	}

	res, err := svc.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DaysCreated)
	assert.Equal(t, 2, res.ExercisesCreated)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Row 3")

	res, err = svc.Import(ctx, rows)
	require.NoError(t, err)
	assert.Zero(t, res.DaysCreated)
	assert.Zero(t, res.ExercisesCreated)
	assert.Equal(t, 2, res.ExercisesUpdated)

	var count int64
	db.Model(&models.PracticeExercise{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

type memoryBoard struct {
	fakeRecorder
	replaced map[period.Period][]cache.Score
}

func (m *memoryBoard) Top(context.Context, period.Period, time.Time, int) ([]cache.Score, error) {
	return nil, nil
}

func (m *memoryBoard) Replace(_ context.Context, p period.Period, _ time.Time, scores []cache.Score) error {
	if m.replaced == nil {
		m.replaced = make(map[period.Period][]cache.Score)
	}
	m.replaced[p] = scores
	return nil
}

func TestLeaderboardFromLedger(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	xp := NewXPService(db, nil, false)
	board := &memoryBoard{}
	lb := NewLeaderboardService(db, board)

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	lb.now = func() time.Time { return now }

	alice := createUser(t, db, "alice", models.PlanFree)
	bob := createUser(t, db, "bob", models.PlanFree)
	carol := createUser(t, db, "carol", models.PlanFree)

	xp.now = func() time.Time { return now.AddDate(0, 0, -20) }
	_, err := xp.Award(ctx, alice.ID, AwardInput{Amount: 500, Event: "generic"})
	require.NoError(t, err)

	xp.now = func() time.Time { return now }
	for _, a := range []struct {
		u   *models.User
		amt int
	}{{alice, 30}, {bob, 80}, {carol, -5}} {
		_, err := xp.Award(ctx, a.u.ID, AwardInput{Amount: a.amt, Event: "generic"})
		require.NoError(t, err)
	}

	weekly, err := lb.Top(ctx, period.Weekly, 10)
	require.NoError(t, err)
	require.Len(t, weekly, 2)
	assert.Equal(t, LeaderboardEntry{Rank: 1, UserID: bob.ID, Name: "bob", XP: 80}, weekly[0])
	assert.Equal(t, alice.ID, weekly[1].UserID)
	assert.Equal(t, 30, weekly[1].XP)

	all, err := lb.Top(ctx, period.AllTime, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, alice.ID, all[0].UserID)
	assert.Equal(t, 530, all[0].XP)

	require.NoError(t, lb.Rebuild(ctx))
	assert.Len(t, board.replaced, len(period.All))
	assert.Len(t, board.replaced[period.Today], 2)
}

func TestAuthAndTierIntegration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	cfg := testConfig()
	auth := NewAuthService(db, cfg)
	users := NewUserService(db)
	subs := NewSubscriptionService(db)

	resp, err := auth.Signup(ctx, &dto.SignupRequest{Email: " Learner@Example.com ", Password: "password1", Name: "Learner"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "learner@example.com", resp.User.Email)
	assert.Equal(t, models.PlanFree, resp.User.Plan)

	_, err = auth.Signup(ctx, &dto.SignupRequest{Email: "learner@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = auth.Login(ctx, &dto.LoginRequest{Email: "learner@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	refreshed, err := auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	_, err = auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := auth.Signup(ctx, &dto.SignupRequest{Email: "other@example.com", Password: "password1", Name: "Other"})
	require.NoError(t, err)
	require.NoError(t, auth.Logout(ctx, other.User.ID, &dto.LogoutRequest{RefreshToken: refreshed.RefreshToken}))
	var live int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = false", resp.User.ID).Count(&live).Error)
	assert.Equal(t, int64(1), live)

	require.NoError(t, auth.Logout(ctx, resp.User.ID, &dto.LogoutRequest{RefreshToken: refreshed.RefreshToken}))
	_, err = auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: refreshed.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	me, err := users.SetPlacement(ctx, resp.User.ID, "intermediate")
	require.NoError(t, err)
	assert.Equal(t, models.TrackIntermediate, me.Placement)

	plan := "PRO"
	me, err = users.UpdateTier(ctx, resp.User.ID, &dto.TierUpdateRequest{Plan: &plan})
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, me.Plan)
	assert.Equal(t, models.PlanPro, me.TierLevel)

	bad := "gold"
	_, err = users.UpdateTier(ctx, resp.User.ID, &dto.TierUpdateRequest{Plan: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = subs.HandleWebhookEvent(ctx, &dto.PaymentWebhook{
		Event: "PURCHASE", UserID: resp.User.ID.String(), Plan: "intermediate", ProviderRef: "sub_1",
	})
	require.NoError(t, err)
	me, err = auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanIntermediate, me.Plan)

	require.NoError(t, subs.HandleWebhookEvent(ctx, &dto.PaymentWebhook{Event: "EXPIRATION", ProviderRef: "sub_1"}))
	me, err = auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, me.Plan)

	var sub models.Subscription
	require.NoError(t, db.First(&sub, "provider_ref = ?", "sub_1").Error)
	assert.Equal(t, "expired", sub.Status)

	err = subs.HandleWebhookEvent(ctx, &dto.PaymentWebhook{Event: "CANCELLATION", ProviderRef: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
}

func TestRefreshRotatesOnce(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	auth := NewAuthService(db, testConfig())

	resp, err := auth.Signup(ctx, &dto.SignupRequest{Email: "racer@example.com", Password: "password1", Name: "Racer"})
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrInvalidToken) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	var live int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = false", resp.User.ID).Count(&live).Error)
	assert.Equal(t, int64(1), live)
}
