// AngelaMos | 2026
// entity.go

package session

import (
	"time"
)

const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Session is a trainer's time slot, open until a client books it.
type Session struct {
	ID              string    `db:"id"`
	TrainerID       string    `db:"trainer_id"`
	ClientID        *string   `db:"client_id"`
	StartsAt        time.Time `db:"starts_at"`
	DurationMinutes int       `db:"duration_minutes"`
	Location        string    `db:"location"`
	Status          string    `db:"status"`
	Notes           string    `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (s *Session) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

func (s *Session) BookedBy(userID string) bool {
	return s.ClientID != nil && *s.ClientID == userID
}

// Refundable reports whether cancelling at now returns the client's credit.
func (s *Session) Refundable(now time.Time, window time.Duration) bool {
	return s.Status == StatusBooked && s.StartsAt.Sub(now) > window
}
