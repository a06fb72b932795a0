// AngelaMos | 2026
// catalog.go

package jobs

import (
	"context"
	"time"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/outbox"
)

type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type ChallengeCloser interface {
	CloseExpiredChallenges(ctx context.Context) (int64, error)
}

type StreakResetter interface {
	ResetLapsedStreaks(ctx context.Context) (int64, error)
}

func OutboxVacuum(cfg config.JobsConfig, db core.DBTX) Job {
	retain := time.Duration(max(cfg.OutboxRetainDays, 1)) * 24 * time.Hour
	return Job{
		Name:     "outbox_vacuum",
		Schedule: cfg.OutboxVacuum,
		Run: func(ctx context.Context) (int64, error) {
			return outbox.Vacuum(ctx, db, retain)
		},
	}
}

func TokenPurge(cfg config.JobsConfig, p TokenPurger) Job {
	return Job{Name: "token_purge", Schedule: cfg.TokenPurge, Run: p.PurgeExpiredTokens}
}

func ChallengeSweep(cfg config.JobsConfig, c ChallengeCloser) Job {
	return Job{Name: "challenge_sweep", Schedule: cfg.ChallengeSweep, Run: c.CloseExpiredChallenges}
}

func StreakReset(cfg config.JobsConfig, r StreakResetter) Job {
	return Job{Name: "streak_reset", Schedule: cfg.StreakReset, Run: r.ResetLapsedStreaks}
}
