// AngelaMos | 2026
// dto.go

package exercise

import (
	"time"
)

type CreateExerciseRequest struct {
	Name         string  `json:"name"          validate:"required,min=2,max=120"`
	Description  string  `json:"description"   validate:"max=2000"`
	Instructions string  `json:"instructions"  validate:"max=4000"`
	MuscleGroup  string  `json:"muscle_group"  validate:"required,min=2,max=50"`
	Equipment    string  `json:"equipment"     validate:"omitempty,max=50"`
	Difficulty   string  `json:"difficulty"    validate:"required,oneof=beginner intermediate advanced"`
	OPTPhase     int     `json:"opt_phase"     validate:"required,min=1,max=5"`
	VideoURL     *string `json:"video_url"     validate:"omitempty,url"`
}

type UpdateExerciseRequest struct {
	Name         *string `json:"name"          validate:"omitempty,min=2,max=120"`
	Description  *string `json:"description"   validate:"omitempty,max=2000"`
	Instructions *string `json:"instructions"  validate:"omitempty,max=4000"`
	MuscleGroup  *string `json:"muscle_group"  validate:"omitempty,min=2,max=50"`
	Equipment    *string `json:"equipment"     validate:"omitempty,max=50"`
	Difficulty   *string `json:"difficulty"    validate:"omitempty,oneof=beginner intermediate advanced"`
	OPTPhase     *int    `json:"opt_phase"     validate:"omitempty,min=1,max=5"`
	VideoURL     *string `json:"video_url"     validate:"omitempty,url"`
}

// SearchRequest carries the GET /exercises query parameters.
type SearchRequest struct {
	Query       string `validate:"max=100"`
	MuscleGroup string `validate:"max=50"`
	Equipment   string `validate:"max=50"`
	Difficulty  string `validate:"omitempty,oneof=beginner intermediate advanced"`
	OPTPhase    int    `validate:"min=0,max=5"`
	Page        int
	PageSize    int
}

func (p *SearchRequest) Normalize() {
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

func (p *SearchRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type ExerciseResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Instructions string    `json:"instructions"`
	MuscleGroup  string    `json:"muscle_group"`
	Equipment    string    `json:"equipment"`
	Difficulty   string    `json:"difficulty"`
	OPTPhase     int       `json:"opt_phase"`
	OPTPhaseName string    `json:"opt_phase_name"`
	VideoURL     *string   `json:"video_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SearchResponse struct {
	Exercises []ExerciseResponse `json:"exercises"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

func ToExerciseResponse(e *Exercise) ExerciseResponse {
	return ExerciseResponse{
		ID:           e.ID,
		Name:         e.Name,
		Description:  e.Description,
		Instructions: e.Instructions,
		MuscleGroup:  e.MuscleGroup,
		Equipment:    e.Equipment,
		Difficulty:   e.Difficulty,
		OPTPhase:     e.OPTPhase,
		OPTPhaseName: PhaseName(e.OPTPhase),
		VideoURL:     e.VideoURL,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func ToExerciseResponseList(items []Exercise) []ExerciseResponse {
	out := make([]ExerciseResponse, 0, len(items))
	for i := range items {
		out = append(out, ToExerciseResponse(&items[i]))
	}
	return out
}
