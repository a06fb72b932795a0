// AngelaMos | 2026
// dto.go

package workoutlog

import (
	"time"
)

type SetInput struct {
	ExerciseID      string   `json:"exercise_id"      validate:"required,uuid"`
	SetNumber       int      `json:"set_number"       validate:"required,min=1,max=100"`
	Reps            int      `json:"reps"             validate:"min=0,max=1000"`
	WeightKg        *float64 `json:"weight_kg"        validate:"omitempty,min=0,max=1000"`
	DurationSeconds *int     `json:"duration_seconds" validate:"omitempty,min=0,max=36000"`
}

type CreateWorkoutLogRequest struct {
	PlanID          *string    `json:"plan_id"          validate:"omitempty,uuid"`
	Title           string     `json:"title"            validate:"required,min=1,max=120"`
	PerformedAt     time.Time  `json:"performed_at"     validate:"required"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,min=1,max=600"`
	Intensity       int        `json:"intensity"        validate:"required,min=1,max=10"`
	Notes           string     `json:"notes"            validate:"max=2000"`
	Sets            []SetInput `json:"sets"             validate:"required,min=1,max=200,dive"`
}

type ListParams struct {
	UserID   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
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

type SetResponse struct {
	ExerciseID      string   `json:"exercise_id"`
	SetNumber       int      `json:"set_number"`
	Reps            int      `json:"reps"`
	WeightKg        *float64 `json:"weight_kg,omitempty"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
}

type LogResponse struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	PlanID          *string       `json:"plan_id,omitempty"`
	Title           string        `json:"title"`
	PerformedAt     time.Time     `json:"performed_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Intensity       int           `json:"intensity"`
	Notes           string        `json:"notes,omitempty"`
	PointsEstimate  int           `json:"points_estimate"`
	Sets            []SetResponse `json:"sets,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

type CreateWorkoutLogResponse struct {
	Log              LogResponse `json:"log"`
	PointsEstimate   int         `json:"points_estimate"`
	IdempotentReplay bool        `json:"idempotent_replay,omitempty"`
}

type ProgressPoint struct {
	WeekStart  string  `json:"week_start"`
	Volume     float64 `json:"volume"`
	BestWeight float64 `json:"best_weight"`
	Sessions   int     `json:"sessions"`
}

type ProgressResponse struct {
	ExerciseID string          `json:"exercise_id,omitempty"`
	Weeks      int             `json:"weeks"`
	Series     []ProgressPoint `json:"series"`
}

func ToLogResponse(l *Log) LogResponse {
	resp := LogResponse{
		ID:              l.ID,
		UserID:          l.UserID,
		PlanID:          l.PlanID,
		Title:           l.Title,
		PerformedAt:     l.PerformedAt,
		DurationMinutes: l.DurationMinutes,
		Intensity:       l.Intensity,
		Notes:           l.Notes,
		PointsEstimate:  l.PointsEstimate,
		CreatedAt:       l.CreatedAt,
	}

	if len(l.Sets) > 0 {
		resp.Sets = make([]SetResponse, 0, len(l.Sets))
		for _, s := range l.Sets {
			resp.Sets = append(resp.Sets, SetResponse{
				ExerciseID:      s.ExerciseID,
				SetNumber:       s.SetNumber,
				Reps:            s.Reps,
				WeightKg:        s.WeightKg,
				DurationSeconds: s.DurationSeconds,
			})
		}
	}
	return resp
}

func ToLogResponseList(logs []Log) []LogResponse {
	out := make([]LogResponse, len(logs))
	for i := range logs {
		out[i] = ToLogResponse(&logs[i])
	}
	return out
}
