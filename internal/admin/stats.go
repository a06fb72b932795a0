// AngelaMos | 2026
// stats.go

package admin

import (
	"context"
	"fmt"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/outbox"
)

type PlatformCounts struct {
	UsersByRole      map[string]int `json:"users_by_role"`
	WorkoutLogs      int            `json:"workout_logs"`
	WorkoutLogs7d    int            `json:"workout_logs_last_7_days"`
	Orders           int            `json:"orders"`
	RevenueCents     int64          `json:"revenue_cents"`
	SessionsBooked   int            `json:"sessions_booked"`
	PendingOutbox    int            `json:"pending_outbox_events"`
	ActiveChallenges int            `json:"active_challenges"`
}

// Counter reads platform wide totals.
type Counter interface {
	PlatformCounts(ctx context.Context) (*PlatformCounts, error)
}

type counter struct {
	db core.DBTX
}

func NewCounter(db core.DBTX) Counter {
	return &counter{db: db}
}

type roleCount struct {
	Role  string `db:"role"`
	Count int    `db:"count"`
}

func (c *counter) PlatformCounts(ctx context.Context) (*PlatformCounts, error) {
	var roles []roleCount
	err := c.db.SelectContext(ctx, &roles, `
		SELECT role, COUNT(*) AS count
		FROM users
		WHERE deleted_at IS NULL
		GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	counts := &PlatformCounts{UsersByRole: make(map[string]int, len(roles))}
	for _, rc := range roles {
		counts.UsersByRole[rc.Role] = rc.Count
	}

	var totals struct {
		WorkoutLogs     int   `db:"workout_logs"`
		WorkoutLogs7d   int   `db:"workout_logs_7d"`
		Orders          int   `db:"orders"`
		RevenueCents    int64 `db:"revenue_cents"`
		SessionsBooked  int   `db:"sessions_booked"`
		ActiveChallenge int   `db:"active_challenges"`
	}
	err = c.db.GetContext(ctx, &totals, `
		SELECT
			(SELECT COUNT(*) FROM workout_logs) AS workout_logs,
			(SELECT COUNT(*) FROM workout_logs
			  WHERE performed_at >= NOW() - INTERVAL '7 days') AS workout_logs_7d,
			(SELECT COUNT(*) FROM orders) AS orders,
			(SELECT COALESCE(SUM(total_cents), 0) FROM orders
			  WHERE status = 'paid') AS revenue_cents,
			(SELECT COUNT(*) FROM training_sessions
			  WHERE status = 'booked') AS sessions_booked,
			(SELECT COUNT(*) FROM challenges
			  WHERE status = 'active') AS active_challenges`)
	if err != nil {
		return nil, fmt.Errorf("count platform totals: %w", err)
	}

	counts.WorkoutLogs = totals.WorkoutLogs
	counts.WorkoutLogs7d = totals.WorkoutLogs7d
	counts.Orders = totals.Orders
	counts.RevenueCents = totals.RevenueCents
	counts.SessionsBooked = totals.SessionsBooked
	counts.ActiveChallenges = totals.ActiveChallenge

	counts.PendingOutbox, err = outbox.PendingCount(ctx, c.db)
	if err != nil {
		return nil, err
	}

	return counts, nil
}
