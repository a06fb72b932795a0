// AngelaMos | 2026
// service.go

package gamification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
)

const maxLeaderboardLimit = 100

// Service answers the read side of gamification and manages achievements
// and challenges. Awards go through Engine.
type Service struct {
	repo  Repository
	board Leaderboard
	cfg   config.GamificationConfig
	now   func() time.Time
}

func NewService(repo Repository, board Leaderboard, cfg config.GamificationConfig) *Service {
	return &Service{repo: repo, board: board, cfg: cfg, now: time.Now}
}

func (s *Service) Profile(ctx context.Context, userID string) (*ProfileResponse, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		p, err = NewProfile(userID), nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	streak := p.CurrentStreak
	if !StreakAlive(p.LastWorkoutDate, now) {
		streak = 0
	}

	resp := &ProfileResponse{
		UserID:            p.UserID,
		TotalPoints:       p.TotalPoints,
		XP:                p.XP,
		Level:             p.Level,
		LevelXP:           XPForLevel(p.Level),
		NextLevelXP:       XPForLevel(p.Level + 1),
		CurrentStreak:     streak,
		LongestStreak:     p.LongestStreak,
		LastWorkoutDate:   p.LastWorkoutDate,
		WorkoutsLogged:    p.WorkoutsLogged,
		SessionsCompleted: p.SessionsCompleted,
	}

	// Ranks are best effort.
	if rank, _, err := s.board.Rank(ctx, PeriodAllTime, userID, now); err == nil {
		resp.Rank = rank
	} else {
		slog.WarnContext(ctx, "read all-time rank", "user_id", userID, "error", err)
	}
	if rank, score, err := s.board.Rank(ctx, PeriodWeekly, userID, now); err == nil {
		resp.WeeklyRank, resp.WeeklyPoints = rank, score
	} else {
		slog.WarnContext(ctx, "read weekly rank", "user_id", userID, "error", err)
	}

	return resp, nil
}

func (s *Service) Ledger(
	ctx context.Context,
	userID string,
	page, pageSize int,
) ([]LedgerEntry, int, error) {
	return s.repo.ListLedger(ctx, userID, pageSize, (page-1)*pageSize)
}

func (s *Service) Leaderboard(ctx context.Context, period string, limit int) ([]Standing, error) {
	if period == "" {
		period = PeriodAllTime
	}
	if !ValidPeriod(period) {
		return nil, core.ValidationError("period must be weekly or all_time")
	}
	if limit < 1 {
		limit = s.cfg.LeaderboardLimit
	}
	limit = min(limit, maxLeaderboardLimit)

	return s.board.Top(ctx, period, limit, s.now())
}

func (s *Service) Achievements(ctx context.Context) ([]Achievement, error) {
	return s.repo.ListAchievements(ctx)
}

func (s *Service) UserAchievements(ctx context.Context, userID string) ([]UnlockedAchievement, error) {
	return s.repo.UserAchievements(ctx, userID)
}

func (s *Service) CreateAchievement(
	ctx context.Context,
	req CreateAchievementRequest,
) (*Achievement, error) {
	a := &Achievement{
		ID:           uuid.New().String(),
		Code:         strings.ToLower(strings.TrimSpace(req.Code)),
		Name:         req.Name,
		Description:  req.Description,
		Criteria:     req.Criteria,
		Threshold:    req.Threshold,
		RewardPoints: req.RewardPoints,
	}

	if err := s.repo.CreateAchievement(ctx, a); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("achievement code")
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) CreateChallenge(
	ctx context.Context,
	creatorID string,
	req CreateChallengeRequest,
) (*Challenge, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, core.ValidationError("ends_at must be after starts_at")
	}
	if !req.EndsAt.After(s.now()) {
		return nil, core.ValidationError("ends_at must be in the future")
	}

	c := &Challenge{
		ID:           uuid.New().String(),
		Title:        req.Title,
		Description:  req.Description,
		Metric:       req.Metric,
		Goal:         req.Goal,
		RewardPoints: req.RewardPoints,
		StartsAt:     req.StartsAt.UTC(),
		EndsAt:       req.EndsAt.UTC(),
		Status:       ChallengeActive,
		CreatedBy:    creatorID,
	}

	if err := s.repo.CreateChallenge(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListChallenges(ctx context.Context, activeOnly bool) ([]Challenge, error) {
	return s.repo.ListChallenges(ctx, activeOnly)
}

func (s *Service) GetChallenge(ctx context.Context, id string) (*Challenge, error) {
	return s.repo.GetChallenge(ctx, id)
}

// JoinChallenge enrolls a user. Progress counts only awards made after
// joining.
func (s *Service) JoinChallenge(ctx context.Context, id, userID string) (*Challenge, error) {
	c, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status != ChallengeActive || !s.now().Before(c.EndsAt) {
		return nil, core.ConflictError("challenge is closed")
	}

	if err := s.repo.JoinChallenge(ctx, id, userID); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.ConflictError("already joined this challenge")
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) ChallengeLeaderboard(
	ctx context.Context,
	id string,
	limit int,
) (*Challenge, []Standing, error) {
	c, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if limit < 1 {
		limit = s.cfg.LeaderboardLimit
	}
	standings, err := s.repo.ChallengeStandings(ctx, id, min(limit, maxLeaderboardLimit))
	if err != nil {
		return nil, nil, err
	}
	return c, standings, nil
}

func (s *Service) CloseExpiredChallenges(ctx context.Context) (int64, error) {
	n, err := s.repo.CloseExpiredChallenges(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("close expired challenges: %w", err)
	}
	return n, nil
}

func (s *Service) ResetLapsedStreaks(ctx context.Context) (int64, error) {
	n, err := s.repo.ResetLapsedStreaks(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("reset lapsed streaks: %w", err)
	}
	return n, nil
}
