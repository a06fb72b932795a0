// AngelaMos | 2026
// service.go

package workoutplan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/middleware"
)

// Roster answers whether a trainer coaches a client.
type Roster interface {
	IsTrainerOf(ctx context.Context, trainerID, clientID string) (bool, error)
}

type Service struct {
	repo   Repository
	roster Roster
}

func NewService(repo Repository, roster Roster) *Service {
	return &Service{repo: repo, roster: roster}
}

func (s *Service) Create(
	ctx context.Context,
	trainerID, role string,
	req CreatePlanRequest,
) (*Plan, error) {
	if role != middleware.RoleAdmin {
		ok, err := s.roster.IsTrainerOf(ctx, trainerID, req.ClientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, core.ForbiddenError("client is not on your roster")
		}
	}

	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusDraft
	}

	plan := &Plan{
		ID:          uuid.New().String(),
		TrainerID:   trainerID,
		ClientID:    req.ClientID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		StartDate:   start,
		EndDate:     end,
		Exercises:   toPlanExercises(req.Exercises),
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) Get(ctx context.Context, id, userID, role string) (*Plan, error) {
	plan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !plan.VisibleTo(userID, role) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	return plan, nil
}

// List scopes the listing to what the caller may see.
func (s *Service) List(
	ctx context.Context,
	userID, role string,
	params ListParams,
) ([]Plan, int, error) {
	switch role {
	case middleware.RoleAdmin:
	case middleware.RoleTrainer:
		params.TrainerID = userID
	default:
		params.ClientID = userID
		params.TrainerID = ""
		params.HideDrafts = true
	}

	return s.repo.List(ctx, params)
}

func (s *Service) Update(
	ctx context.Context,
	id, userID, role string,
	req UpdatePlanRequest,
) (*Plan, error) {
	plan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !plan.ManagedBy(userID, role) {
		if plan.VisibleTo(userID, role) {
			return nil, core.ForbiddenError("only the plan's trainer can edit it")
		}
		return nil, fmt.Errorf("update plan: %w", core.ErrNotFound)
	}

	if req.Title != nil {
		plan.Title = *req.Title
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Status != nil {
		plan.Status = *req.Status
	}

	startIn, endIn := formatDate(plan.StartDate), formatDate(plan.EndDate)
	if req.StartDate != nil {
		startIn = req.StartDate
	}
	if req.EndDate != nil {
		endIn = req.EndDate
	}
	if plan.StartDate, plan.EndDate, err = parseRange(startIn, endIn); err != nil {
		return nil, err
	}

	replace := req.Exercises != nil
	if replace {
		plan.Exercises = toPlanExercises(*req.Exercises)
	}

	if err := s.repo.Update(ctx, plan, replace); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) Delete(ctx context.Context, id, userID, role string) error {
	plan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !plan.ManagedBy(userID, role) {
		return core.ForbiddenError("only the plan's trainer can delete it")
	}

	return s.repo.Delete(ctx, id)
}

func toPlanExercises(in []PlanExerciseInput) []PlanExercise {
	out := make([]PlanExercise, 0, len(in))
	for i, e := range in {
		rest := 60
		if e.RestSeconds != nil {
			rest = *e.RestSeconds
		}
		out = append(out, PlanExercise{
			ID:          uuid.New().String(),
			ExerciseID:  e.ExerciseID,
			Position:    i,
			Sets:        e.Sets,
			Reps:        e.Reps,
			RestSeconds: rest,
			Tempo:       e.Tempo,
			Notes:       e.Notes,
		})
	}
	return out
}

func parseRange(start, end *string) (*time.Time, *time.Time, error) {
	s, err := parseDate(start)
	if err != nil {
		return nil, nil, err
	}
	e, err := parseDate(end)
	if err != nil {
		return nil, nil, err
	}
	if s != nil && e != nil && e.Before(*s) {
		return nil, nil, core.ValidationError("end_date must not be before start_date")
	}
	return s, e, nil
}

func parseDate(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *v)
	if err != nil {
		return nil, core.ValidationError("dates must use YYYY-MM-DD")
	}
	return &t, nil
}
