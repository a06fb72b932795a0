// AngelaMos | 2026
// entity.go

package workoutplan

import (
	"time"
)

const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

type Plan struct {
	ID          string     `db:"id"`
	TrainerID   string     `db:"trainer_id"`
	ClientID    string     `db:"client_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Status      string     `db:"status"`
	StartDate   *time.Time `db:"start_date"`
	EndDate     *time.Time `db:"end_date"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`

	Exercises []PlanExercise `db:"-"`
}

type PlanExercise struct {
	ID          string `db:"id"`
	PlanID      string `db:"plan_id"`
	ExerciseID  string `db:"exercise_id"`
	Position    int    `db:"position"`
	Sets        int    `db:"sets"`
	Reps        int    `db:"reps"`
	RestSeconds int    `db:"rest_seconds"`
	Tempo       string `db:"tempo"`
	Notes       string `db:"notes"`
}

// VisibleTo reports whether the plan may be read by the user. Clients do
// not see drafts.
func (p *Plan) VisibleTo(userID, role string) bool {
	switch {
	case role == "admin":
		return true
	case p.TrainerID == userID:
		return true
	case p.ClientID == userID:
		return p.Status != StatusDraft
	}
	return false
}

func (p *Plan) ManagedBy(userID, role string) bool {
	return role == "admin" || p.TrainerID == userID
}
