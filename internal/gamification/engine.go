// AngelaMos | 2026
// engine.go

package gamification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/events"
	"github.com/coachforge/platform/internal/observability"
	"github.com/coachforge/platform/internal/realtime"
)

const (
	MsgPointsAwarded      = "points_awarded"
	MsgLevelUp            = "level_up"
	MsgAchievementUnlock  = "achievement_unlocked"
	MsgChallengeCompleted = "challenge_completed"
	MsgLeaderboardUpdated = "leaderboard_updated"
)

// ErrInvalidEvent marks an event that lacks the ids an award needs.
// Retrying it can never succeed.
var ErrInvalidEvent = errors.New("invalid event")

// Notifier delivers a message to whichever instance holds the subscribers.
type Notifier interface {
	Publish(ctx context.Context, msg realtime.Message) error
}

// Award describes the outcome of one award attempt.
type Award struct {
	UserID        string
	SourceType    string
	SourceID      string
	Points        int
	Bonus         int
	Breakdown     *WorkoutBreakdown
	Duplicate     bool
	PreviousLevel int
	Profile       Profile
	Achievements  []Achievement
	Challenges    []Challenge
}

func (a *Award) Gained() int {
	return a.Points + a.Bonus
}

func (a *Award) LeveledUp() bool {
	return !a.Duplicate && a.Profile.Level > a.PreviousLevel
}

// Engine applies point awards. Every award runs in one transaction holding
// the user's profile row lock, so awards for the same user never interleave.
type Engine struct {
	repo     Repository
	board    Leaderboard
	notifier Notifier
	cfg      config.GamificationConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(
	repo Repository,
	board Leaderboard,
	notifier Notifier,
	cfg config.GamificationConfig,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		repo:     repo,
		board:    board,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (e *Engine) AwardWorkout(ctx context.Context, ev events.WorkoutLogged) (*Award, error) {
	var breakdown WorkoutBreakdown

	award, err := e.apply(ctx, ev.UserID, SourceWorkout, ev.LogID, "workout logged", ev.PerformedAt,
		func(p *Profile) int {
			streak, day := NextStreak(p.CurrentStreak, p.LastWorkoutDate, ev.PerformedAt)
			p.CurrentStreak = streak
			p.LongestStreak = max(p.LongestStreak, streak)
			p.LastWorkoutDate = &day
			p.WorkoutsLogged++

			breakdown = WorkoutPoints(WorkoutInput{
				DurationMinutes:   ev.DurationMinutes,
				DistinctExercises: ev.DistinctExercises,
				Intensity:         ev.Intensity,
				Streak:            streak,
			})
			return breakdown.Total
		})
	if err != nil {
		return nil, err
	}

	if !award.Duplicate {
		award.Breakdown = &breakdown
	}
	return award, nil
}

func (e *Engine) AwardSession(ctx context.Context, ev events.SessionCompleted) (*Award, error) {
	return e.apply(ctx, ev.ClientID, SourceSession, ev.SessionID, "training session completed", ev.StartsAt,
		func(p *Profile) int {
			p.SessionsCompleted++
			return SessionPoints(e.cfg.SessionPoints)
		})
}

func (e *Engine) AwardOrder(ctx context.Context, ev events.OrderCompleted) (*Award, error) {
	return e.apply(ctx, ev.UserID, SourceOrder, ev.OrderID, "order completed", e.now(),
		func(_ *Profile) int {
			return OrderPoints(ev.SessionsGranted, e.cfg.PointsPerCredit)
		})
}

func (e *Engine) apply(
	ctx context.Context,
	userID, sourceType, sourceID, reason string,
	occurredAt time.Time,
	compute func(p *Profile) int,
) (*Award, error) {
	if userID == "" || sourceID == "" {
		return nil, fmt.Errorf("award %s: missing user or source id: %w", sourceType, ErrInvalidEvent)
	}

	award := &Award{UserID: userID, SourceType: sourceType, SourceID: sourceID}

	err := e.repo.InTx(ctx, func(s Store) error {
		p, err := s.LockProfile(ctx, userID)
		if err != nil {
			return err
		}

		done, err := s.HasLedgerEntry(ctx, userID, sourceType, sourceID)
		if err != nil {
			return err
		}
		if done {
			award.Duplicate = true
			award.Profile = *p
			award.PreviousLevel = p.Level
			return nil
		}

		award.PreviousLevel = p.Level
		award.Points = compute(p)

		inserted, err := s.InsertLedger(ctx, &LedgerEntry{
			ID:         uuid.New().String(),
			UserID:     userID,
			SourceType: sourceType,
			SourceID:   sourceID,
			Points:     award.Points,
			Reason:     reason,
		})
		if err != nil {
			return err
		}
		if !inserted {
			award.Duplicate = true
			award.Profile = *p
			return nil
		}
		p.AddPoints(award.Points)

		if err := e.advanceChallenges(ctx, s, p, award, occurredAt); err != nil {
			return err
		}
		if err := e.unlockAchievements(ctx, s, p, award); err != nil {
			return err
		}

		if err := s.SaveProfile(ctx, p); err != nil {
			return err
		}
		award.Profile = *p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("award %s %s: %w", sourceType, sourceID, err)
	}

	if award.Duplicate {
		observability.DuplicateAwards.WithLabelValues(sourceType).Inc()
		e.logger.InfoContext(ctx, "award already applied",
			"user_id", userID,
			"source_type", sourceType,
			"source_id", sourceID,
		)
		return award, nil
	}

	observability.PointsAwarded.WithLabelValues(sourceType).Add(float64(award.Points))
	if award.Bonus > 0 {
		observability.PointsAwarded.WithLabelValues("bonus").Add(float64(award.Bonus))
	}
	observability.AchievementsUnlocked.Add(float64(len(award.Achievements)))

	e.afterCommit(ctx, award)
	return award, nil
}

// advanceChallenges adds the award to every open challenge the user joined.
// Challenge rewards do not count toward points challenges.
func (e *Engine) advanceChallenges(
	ctx context.Context,
	s Store,
	p *Profile,
	award *Award,
	at time.Time,
) error {
	parts, err := s.OpenParticipations(ctx, p.UserID, at)
	if err != nil {
		return err
	}

	for i := range parts {
		part := &parts[i]

		delta := challengeDelta(part.Challenge.Metric, award)
		if delta == 0 {
			continue
		}
		part.Progress += delta

		completed := part.Progress >= part.Challenge.Goal
		if completed {
			now := e.now().UTC()
			part.CompletedAt = &now
		}
		if err := s.SaveProgress(ctx, part); err != nil {
			return err
		}
		if !completed {
			continue
		}

		award.Challenges = append(award.Challenges, part.Challenge)
		if err := e.grantBonus(ctx, s, p, award, SourceChallenge, part.ChallengeID,
			part.Challenge.RewardPoints, "challenge completed: "+part.Challenge.Title); err != nil {
			return err
		}
	}
	return nil
}

func challengeDelta(metric string, award *Award) int {
	switch metric {
	case MetricWorkouts:
		if award.SourceType == SourceWorkout {
			return 1
		}
	case MetricSessions:
		if award.SourceType == SourceSession {
			return 1
		}
	case MetricPoints:
		return award.Points
	}
	return 0
}

// unlockAchievements repeats until a pass unlocks nothing, since reward
// points can satisfy further point or level criteria.
func (e *Engine) unlockAchievements(ctx context.Context, s Store, p *Profile, award *Award) error {
	locked, err := s.LockedAchievements(ctx, p.UserID)
	if err != nil {
		return err
	}

	for progressed := true; progressed; {
		progressed = false
		remaining := locked[:0]

		for _, a := range locked {
			if !p.Meets(a) {
				remaining = append(remaining, a)
				continue
			}

			unlocked, err := s.UnlockAchievement(ctx, p.UserID, a.ID)
			if err != nil {
				return err
			}
			if !unlocked {
				continue
			}

			award.Achievements = append(award.Achievements, a)
			if err := e.grantBonus(ctx, s, p, award, SourceAchievement, a.ID,
				a.RewardPoints, "achievement unlocked: "+a.Name); err != nil {
				return err
			}
			progressed = true
		}
		locked = remaining
	}
	return nil
}

func (e *Engine) grantBonus(
	ctx context.Context,
	s Store,
	p *Profile,
	award *Award,
	sourceType, sourceID string,
	points int,
	reason string,
) error {
	if points <= 0 {
		return nil
	}

	inserted, err := s.InsertLedger(ctx, &LedgerEntry{
		ID:         uuid.New().String(),
		UserID:     p.UserID,
		SourceType: sourceType,
		SourceID:   sourceID,
		Points:     points,
		Reason:     reason,
	})
	if err != nil {
		return err
	}
	if inserted {
		p.AddPoints(points)
		award.Bonus += points
	}
	return nil
}

// afterCommit pushes the award to Redis. Failures are logged and never undo
// the award; the next award rewrites the all-time score.
func (e *Engine) afterCommit(ctx context.Context, award *Award) {
	log := e.logger.With(
		"user_id", award.UserID,
		"source_type", award.SourceType,
		"source_id", award.SourceID,
	)

	if e.board != nil {
		if err := e.board.Record(ctx, award.UserID, award.Profile.TotalPoints, award.Gained(), e.now()); err != nil {
			log.WarnContext(ctx, "leaderboard update failed", "error", err)
		}
	}

	for _, msg := range e.messages(award) {
		if e.notifier == nil {
			break
		}
		if err := e.notifier.Publish(ctx, msg); err != nil {
			log.WarnContext(ctx, "notification publish failed", "type", msg.Type, "error", err)
		}
	}

	log.InfoContext(ctx, "points awarded",
		"points", award.Points,
		"bonus", award.Bonus,
		"total_points", award.Profile.TotalPoints,
		"level", award.Profile.Level,
	)
}

type pointsAwardedData struct {
	SourceType  string            `json:"source_type"`
	SourceID    string            `json:"source_id"`
	Points      int               `json:"points"`
	Bonus       int               `json:"bonus"`
	TotalPoints int               `json:"total_points"`
	XP          int               `json:"xp"`
	Level       int               `json:"level"`
	Streak      int               `json:"streak"`
	Breakdown   *WorkoutBreakdown `json:"breakdown,omitempty"`
}

type levelUpData struct {
	Level         int `json:"level"`
	PreviousLevel int `json:"previous_level"`
	NextLevelXP   int `json:"next_level_xp"`
}

type achievementData struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	RewardPoints int    `json:"reward_points"`
}

type challengeData struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	RewardPoints int    `json:"reward_points"`
}

type leaderboardData struct {
	UserID      string `json:"user_id"`
	TotalPoints int    `json:"total_points"`
	Gained      int    `json:"gained"`
}

type notification struct {
	channel string
	kind    string
	data    any
}

func (e *Engine) messages(award *Award) []realtime.Message {
	channel := realtime.UserChannel(award.UserID)
	p := award.Profile

	pending := []notification{{channel, MsgPointsAwarded, pointsAwardedData{
		SourceType:  award.SourceType,
		SourceID:    award.SourceID,
		Points:      award.Points,
		Bonus:       award.Bonus,
		TotalPoints: p.TotalPoints,
		XP:          p.XP,
		Level:       p.Level,
		Streak:      p.CurrentStreak,
		Breakdown:   award.Breakdown,
	}}}

	if award.LeveledUp() {
		pending = append(pending, notification{channel, MsgLevelUp, levelUpData{
			Level:         p.Level,
			PreviousLevel: award.PreviousLevel,
			NextLevelXP:   XPForLevel(p.Level + 1),
		}})
	}
	for _, a := range award.Achievements {
		pending = append(pending, notification{channel, MsgAchievementUnlock, achievementData{
			ID:           a.ID,
			Code:         a.Code,
			Name:         a.Name,
			RewardPoints: a.RewardPoints,
		}})
	}
	for _, c := range award.Challenges {
		pending = append(pending, notification{channel, MsgChallengeCompleted, challengeData{
			ID:           c.ID,
			Title:        c.Title,
			RewardPoints: c.RewardPoints,
		}})
	}
	pending = append(pending, notification{realtime.ChannelLeaderboard, MsgLeaderboardUpdated, leaderboardData{
		UserID:      award.UserID,
		TotalPoints: p.TotalPoints,
		Gained:      award.Gained(),
	}})

	out := make([]realtime.Message, 0, len(pending))
	for _, n := range pending {
		msg, err := realtime.NewMessage(n.channel, n.kind, n.data)
		if err != nil {
			e.logger.Error("encode notification", "type", n.kind, "error", err)
			continue
		}
		out = append(out, msg)
	}
	return out
}
