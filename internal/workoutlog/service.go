// AngelaMos | 2026
// service.go

package workoutlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
	"github.com/coachforge/platform/internal/gamification"
	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/observability"
)

const (
	maxFutureSkew   = 5 * time.Minute
	maxProgressWeek = 52
)

// Roster answers whether a trainer coaches a client.
type Roster interface {
	IsTrainerOf(ctx context.Context, trainerID, clientID string) (bool, error)
}

type Service struct {
	repo   Repository
	roster Roster
	now    func() time.Time
}

func NewService(repo Repository, roster Roster) *Service {
	return &Service{repo: repo, roster: roster, now: time.Now}
}

// CreateResult is returned by Create. Replay is set when the idempotency key
// matched an earlier log and nothing new was written.
type CreateResult struct {
	Log    *Log
	Replay bool
}

func (s *Service) Create(
	ctx context.Context,
	userID, idempotencyKey string,
	req CreateWorkoutLogRequest,
) (*CreateResult, error) {
	if idempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, userID, idempotencyKey)
		switch {
		case err == nil:
			observability.WorkoutLogsCreated.WithLabelValues("true").Inc()
			return &CreateResult{Log: existing, Replay: true}, nil
		case !errors.Is(err, core.ErrNotFound):
			return nil, err
		}
	}

	if req.PerformedAt.After(s.now().Add(maxFutureSkew)) {
		return nil, core.ValidationError("performed_at cannot be in the future")
	}

	log := &Log{
		ID:              uuid.New().String(),
		UserID:          userID,
		PlanID:          req.PlanID,
		Title:           req.Title,
		PerformedAt:     req.PerformedAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Intensity:       req.Intensity,
		Notes:           req.Notes,
		Sets:            toSets(req.Sets),
	}
	if idempotencyKey != "" {
		log.IdempotencyKey = &idempotencyKey
	}

	// The streak bonus is settled by the gamification service once the
	// event is consumed, so the estimate leaves it out.
	log.PointsEstimate = gamification.WorkoutPoints(gamification.WorkoutInput{
		DurationMinutes:   log.DurationMinutes,
		DistinctExercises: log.DistinctExercises(),
		Intensity:         log.Intensity,
	}).Total

	event, err := events.New(events.TypeWorkoutLogged, log.ID, userID, events.WorkoutLogged{
		LogID:             log.ID,
		UserID:            userID,
		PlanID:            log.PlanID,
		PerformedAt:       log.PerformedAt,
		DurationMinutes:   log.DurationMinutes,
		Intensity:         log.Intensity,
		DistinctExercises: log.DistinctExercises(),
		TotalSets:         len(log.Sets),
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, log, event); err != nil {
		// A concurrent request with the same key won the insert.
		if idempotencyKey != "" && errors.Is(err, core.ErrDuplicateKey) {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, userID, idempotencyKey)
			if findErr != nil {
				return nil, findErr
			}
			observability.WorkoutLogsCreated.WithLabelValues("true").Inc()
			return &CreateResult{Log: existing, Replay: true}, nil
		}
		return nil, err
	}

	observability.WorkoutLogsCreated.WithLabelValues("false").Inc()
	return &CreateResult{Log: log}, nil
}

func (s *Service) Get(ctx context.Context, id, userID, role string) (*Log, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeRead(ctx, log.UserID, userID, role); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			return nil, fmt.Errorf("get workout log: %w", core.ErrNotFound)
		}
		return nil, err
	}
	return log, nil
}

// List returns the caller's logs, or another user's when the caller is an
// admin or that user's trainer.
func (s *Service) List(
	ctx context.Context,
	userID, role string,
	params ListParams,
) ([]Log, int, error) {
	if params.UserID == "" {
		params.UserID = userID
	}

	if err := s.authorizeRead(ctx, params.UserID, userID, role); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params)
}

func (s *Service) Delete(ctx context.Context, id, userID, role string) error {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if log.UserID != userID && role != middleware.RoleAdmin {
		return fmt.Errorf("delete workout log: %w", core.ErrNotFound)
	}

	return s.repo.Delete(ctx, id)
}

// Progress returns one point per week for the last weeks weeks, oldest
// first, with empty weeks filled with zeros.
func (s *Service) Progress(
	ctx context.Context,
	userID, role, ownerID, exerciseID string,
	weeks int,
) (*ProgressResponse, error) {
	if ownerID == "" {
		ownerID = userID
	}
	if err := s.authorizeRead(ctx, ownerID, userID, role); err != nil {
		return nil, err
	}

	if weeks < 1 {
		weeks = 12
	}
	weeks = min(weeks, maxProgressWeek)

	first := weekStart(s.now()).AddDate(0, 0, -7*(weeks-1))

	buckets, err := s.repo.WeeklyProgress(ctx, ownerID, exerciseID, first)
	if err != nil {
		return nil, err
	}

	return &ProgressResponse{
		ExerciseID: exerciseID,
		Weeks:      weeks,
		Series:     fillWeeks(first, weeks, buckets),
	}, nil
}

func (s *Service) authorizeRead(ctx context.Context, ownerID, userID, role string) error {
	if ownerID == userID || role == middleware.RoleAdmin {
		return nil
	}

	if role == middleware.RoleTrainer {
		ok, err := s.roster.IsTrainerOf(ctx, userID, ownerID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	return core.ForbiddenError("you cannot view this user's workouts")
}

func fillWeeks(first time.Time, weeks int, buckets []WeekBucket) []ProgressPoint {
	byWeek := make(map[string]WeekBucket, len(buckets))
	for _, b := range buckets {
		byWeek[b.WeekStart.UTC().Format(time.DateOnly)] = b
	}

	series := make([]ProgressPoint, 0, weeks)
	for i := range weeks {
		key := first.AddDate(0, 0, 7*i).Format(time.DateOnly)
		b := byWeek[key]
		series = append(series, ProgressPoint{
			WeekStart:  key,
			Volume:     b.Volume,
			BestWeight: b.BestWeight,
			Sessions:   b.Sessions,
		})
	}
	return series
}

// weekStart returns the Monday 00:00 UTC of t's ISO week.
func weekStart(t time.Time) time.Time {
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func toSets(in []SetInput) []Set {
	out := make([]Set, 0, len(in))
	for _, s := range in {
		out = append(out, Set{
			ID:              uuid.New().String(),
			ExerciseID:      s.ExerciseID,
			SetNumber:       s.SetNumber,
			Reps:            s.Reps,
			WeightKg:        s.WeightKg,
			DurationSeconds: s.DurationSeconds,
		})
	}
	return out
}
