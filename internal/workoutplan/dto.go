// AngelaMos | 2026
// dto.go

package workoutplan

import (
	"time"
)

type PlanExerciseInput struct {
	ExerciseID  string `json:"exercise_id"  validate:"required,uuid"`
	Sets        int    `json:"sets"         validate:"required,min=1,max=20"`
	Reps        int    `json:"reps"         validate:"required,min=1,max=200"`
	RestSeconds *int   `json:"rest_seconds" validate:"omitempty,min=0,max=900"`
	Tempo       string `json:"tempo"        validate:"max=20"`
	Notes       string `json:"notes"        validate:"max=500"`
}

type CreatePlanRequest struct {
	ClientID    string              `json:"client_id"   validate:"required,uuid"`
	Title       string              `json:"title"       validate:"required,min=2,max=120"`
	Description string              `json:"description" validate:"max=2000"`
	Status      string              `json:"status"      validate:"omitempty,oneof=draft active archived"`
	StartDate   *string             `json:"start_date"  validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string             `json:"end_date"    validate:"omitempty,datetime=2006-01-02"`
	Exercises   []PlanExerciseInput `json:"exercises"   validate:"max=50,dive"`
}

type UpdatePlanRequest struct {
	Title       *string              `json:"title"       validate:"omitempty,min=2,max=120"`
	Description *string              `json:"description" validate:"omitempty,max=2000"`
	Status      *string              `json:"status"      validate:"omitempty,oneof=draft active archived"`
	StartDate   *string              `json:"start_date"  validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string              `json:"end_date"    validate:"omitempty,datetime=2006-01-02"`
	Exercises   *[]PlanExerciseInput `json:"exercises"   validate:"omitempty,max=50,dive"`
}

type ListParams struct {
	TrainerID string
	ClientID  string
	Status    string
	// HideDrafts is set when a client lists their own plans.
	HideDrafts bool
	Page       int
	PageSize   int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PlanExerciseResponse struct {
	ExerciseID  string `json:"exercise_id"`
	Position    int    `json:"position"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
	Tempo       string `json:"tempo,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type PlanResponse struct {
	ID          string                 `json:"id"`
	TrainerID   string                 `json:"trainer_id"`
	ClientID    string                 `json:"client_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      string                 `json:"status"`
	StartDate   *string                `json:"start_date,omitempty"`
	EndDate     *string                `json:"end_date,omitempty"`
	Exercises   []PlanExerciseResponse `json:"exercises"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func ToPlanResponse(p *Plan) PlanResponse {
	exercises := make([]PlanExerciseResponse, 0, len(p.Exercises))
	for _, e := range p.Exercises {
		exercises = append(exercises, PlanExerciseResponse{
			ExerciseID:  e.ExerciseID,
			Position:    e.Position,
			Sets:        e.Sets,
			Reps:        e.Reps,
			RestSeconds: e.RestSeconds,
			Tempo:       e.Tempo,
			Notes:       e.Notes,
		})
	}

	return PlanResponse{
		ID:          p.ID,
		TrainerID:   p.TrainerID,
		ClientID:    p.ClientID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
		Exercises:   exercises,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToPlanResponseList(plans []Plan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, ToPlanResponse(&plans[i]))
	}
	return out
}
