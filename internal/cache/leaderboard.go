package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fluencyjet/sentence-master/internal/period"
)

const keyPrefix = "lb:"

// Score is one user's XP inside a leaderboard window.
type Score struct {
	UserID uuid.UUID
	XP     int
}

// Leaderboard maintains one sorted set per period window.
type Leaderboard struct {
	rdb redis.Cmdable
}

func NewLeaderboard(rdb redis.Cmdable) *Leaderboard {
	return &Leaderboard{rdb: rdb}
}

func key(p period.Period, at time.Time) string {
	return keyPrefix + p.Key(at)
}

// Record adds delta to every window containing at.
func (l *Leaderboard) Record(ctx context.Context, userID uuid.UUID, delta int, at time.Time) error {
	member := userID.String()
	pipe := l.rdb.TxPipeline()
	for _, p := range period.All {
		k := key(p, at)
		pipe.ZIncrBy(ctx, k, float64(delta), member)
		if ttl := p.TTL(); ttl > 0 {
			pipe.Expire(ctx, k, ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record leaderboard score: %w", err)
	}
	return nil
}

// Top returns the highest positive scores of the window containing at.
func (l *Leaderboard) Top(ctx context.Context, p period.Period, at time.Time, limit int) ([]Score, error) {
	if limit <= 0 {
		return nil, nil
	}
	zs, err := l.rdb.ZRevRangeByScoreWithScores(ctx, key(p, at), &redis.ZRangeBy{
		Min:   "(0",
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard %s: %w", p, err)
	}

	scores := make([]Score, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		scores = append(scores, Score{UserID: id, XP: int(z.Score)})
	}
	return scores, nil
}

// Replace swaps the window's contents for scores in one transaction.
func (l *Leaderboard) Replace(ctx context.Context, p period.Period, at time.Time, scores []Score) error {
	k := key(p, at)
	pipe := l.rdb.TxPipeline()
	pipe.Del(ctx, k)
	if len(scores) > 0 {
		members := make([]redis.Z, len(scores))
		for i, s := range scores {
			members[i] = redis.Z{Score: float64(s.XP), Member: s.UserID.String()}
		}
		pipe.ZAdd(ctx, k, members...)
		if ttl := p.TTL(); ttl > 0 {
			pipe.Expire(ctx, k, ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace leaderboard %s: %w", p, err)
	}
	return nil
}
