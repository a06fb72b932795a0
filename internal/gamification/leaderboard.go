// AngelaMos | 2026
// leaderboard.go

package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coachforge/platform/internal/core"
)

const (
	PeriodAllTime = "all_time"
	PeriodWeekly  = "weekly"
)

// Leaderboard ranks users by points.
type Leaderboard interface {
	Record(ctx context.Context, userID string, total, gained int, at time.Time) error
	Top(ctx context.Context, period string, limit int, at time.Time) ([]Standing, error)
	Rank(ctx context.Context, period, userID string, at time.Time) (int, int, error)
}

// RedisLeaderboard keeps one sorted set for all time and one per ISO week.
// The all-time score is the profile total, the weekly score accumulates
// points gained during that week.
type RedisLeaderboard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLeaderboard(client *redis.Client, prefix string, weeklyTTL time.Duration) *RedisLeaderboard {
	if prefix == "" {
		prefix = "leaderboard"
	}
	return &RedisLeaderboard{client: client, prefix: core.Key(prefix), ttl: weeklyTTL}
}

func ValidPeriod(period string) bool {
	return period == PeriodAllTime || period == PeriodWeekly
}

// WeekKey names the weekly set for the ISO week containing t.
func WeekKey(prefix string, t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%s:weekly:%04d-W%02d", prefix, year, week)
}

func (l *RedisLeaderboard) key(period string, at time.Time) string {
	if period == PeriodWeekly {
		return WeekKey(l.prefix, at)
	}
	return l.prefix + ":" + PeriodAllTime
}

func (l *RedisLeaderboard) Record(
	ctx context.Context,
	userID string,
	total, gained int,
	at time.Time,
) error {
	weekly := l.key(PeriodWeekly, at)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// GT keeps a late, lower total from overwriting a newer one.
		pipe.ZAddArgs(ctx, l.key(PeriodAllTime, at), redis.ZAddArgs{
			GT:      true,
			Members: []redis.Z{{Score: float64(total), Member: userID}},
		})
		if gained > 0 {
			pipe.ZIncrBy(ctx, weekly, float64(gained), userID)
			pipe.Expire(ctx, weekly, l.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record leaderboard: %w", err)
	}
	return nil
}

func (l *RedisLeaderboard) Top(
	ctx context.Context,
	period string,
	limit int,
	at time.Time,
) ([]Standing, error) {
	if limit < 1 {
		return []Standing{}, nil
	}

	entries, err := l.client.ZRevRangeWithScores(ctx, l.key(period, at), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	out := make([]Standing, 0, len(entries))
	for i, z := range entries {
		member, _ := z.Member.(string)
		out = append(out, Standing{Rank: i + 1, UserID: member, Score: int(z.Score)})
	}
	return out, nil
}

// Rank returns the 1-based rank and score of a user, or zeros when the user
// is not on the board.
func (l *RedisLeaderboard) Rank(
	ctx context.Context,
	period, userID string,
	at time.Time,
) (int, int, error) {
	key := l.key(period, at)

	var rankCmd *redis.IntCmd
	var scoreCmd *redis.FloatCmd
	_, err := l.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		rankCmd = pipe.ZRevRank(ctx, key, userID)
		scoreCmd = pipe.ZScore(ctx, key, userID)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("read rank: %w", err)
	}

	rank, err := rankCmd.Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("read rank: %w", err)
	}
	return int(rank) + 1, int(scoreCmd.Val()), nil
}
