// AngelaMos | 2026
// entity.go

package workoutlog

import (
	"time"
)

type Log struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	PlanID          *string   `db:"plan_id"`
	Title           string    `db:"title"`
	PerformedAt     time.Time `db:"performed_at"`
	DurationMinutes int       `db:"duration_minutes"`
	Intensity       int       `db:"intensity"`
	Notes           string    `db:"notes"`
	IdempotencyKey  *string   `db:"idempotency_key"`
	PointsEstimate  int       `db:"points_estimate"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	Sets            []Set     `db:"-"`
}

type Set struct {
	ID              string   `db:"id"`
	LogID           string   `db:"log_id"`
	ExerciseID      string   `db:"exercise_id"`
	SetNumber       int      `db:"set_number"`
	Reps            int      `db:"reps"`
	WeightKg        *float64 `db:"weight_kg"`
	DurationSeconds *int     `db:"duration_seconds"`
}

// DistinctExercises counts the different exercises across the log's sets.
func (l *Log) DistinctExercises() int {
	seen := make(map[string]struct{}, len(l.Sets))
	for _, s := range l.Sets {
		seen[s.ExerciseID] = struct{}{}
	}
	return len(seen)
}

// Volume is the sum of reps times weight over weighted sets.
func (l *Log) Volume() float64 {
	var total float64
	for _, s := range l.Sets {
		if s.WeightKg != nil {
			total += float64(s.Reps) * *s.WeightKg
		}
	}
	return total
}

// WeekBucket is one aggregated week of a progress series.
type WeekBucket struct {
	WeekStart  time.Time `db:"week_start"`
	Volume     float64   `db:"volume"`
	BestWeight float64   `db:"best_weight"`
	Sessions   int       `db:"sessions"`
}
