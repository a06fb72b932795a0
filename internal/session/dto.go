// AngelaMos | 2026
// dto.go

package session

import (
	"time"
)

type CreateSlotRequest struct {
	StartsAt        time.Time `json:"starts_at"        validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=15,max=240"`
	Location        string    `json:"location"         validate:"max=200"`
	Notes           string    `json:"notes"            validate:"max=1000"`
}

type ListParams struct {
	UserID    string
	Role      string
	Status    string
	TrainerID string
	From      *time.Time
	Page      int
	PageSize  int
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

type SessionResponse struct {
	ID              string    `json:"id"`
	TrainerID       string    `json:"trainer_id"`
	ClientID        *string   `json:"client_id,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location,omitempty"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
}

type CancelResponse struct {
	Session  SessionResponse `json:"session"`
	Refunded bool            `json:"refunded"`
}

type CreditsResponse struct {
	Balance int `json:"balance"`
}

func ToSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		ID:              s.ID,
		TrainerID:       s.TrainerID,
		ClientID:        s.ClientID,
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt(),
		DurationMinutes: s.DurationMinutes,
		Location:        s.Location,
		Status:          s.Status,
		Notes:           s.Notes,
	}
}

func ToSessionResponseList(sessions []Session) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = ToSessionResponse(&sessions[i])
	}
	return out
}
