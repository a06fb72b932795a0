// AngelaMos | 2026
// points.go

// Package gamification turns workout, session and order events into points,
// levels, streaks, achievements and challenge progress.
package gamification

import (
	"math"
	"time"
)

const (
	basePoints          = 10
	durationCapMinutes  = 120
	minutesPerPoint     = 5
	pointsPerExercise   = 2
	exerciseCap         = 10
	intensityThreshold  = 5
	pointsPerIntensity  = 2
	pointsPerStreakDay  = 5
	streakBonusCap      = 25
	xpPerLevelUnit      = 100
	defaultSessionPoint = 25
)

// WorkoutInput is what the points formula needs from a workout log.
type WorkoutInput struct {
	DurationMinutes   int
	DistinctExercises int
	Intensity         int
	// Streak is the user's streak including the day of this workout.
	Streak int
}

// WorkoutBreakdown itemizes a workout award so clients can show the parts.
type WorkoutBreakdown struct {
	Base      int `json:"base"`
	Duration  int `json:"duration"`
	Variety   int `json:"variety"`
	Intensity int `json:"intensity"`
	Streak    int `json:"streak"`
	Total     int `json:"total"`
}

func WorkoutPoints(in WorkoutInput) WorkoutBreakdown {
	b := WorkoutBreakdown{Base: basePoints}

	b.Duration = clamp(in.DurationMinutes, 0, durationCapMinutes) / minutesPerPoint
	b.Variety = pointsPerExercise * clamp(in.DistinctExercises, 0, exerciseCap)

	if in.Intensity > intensityThreshold {
		b.Intensity = pointsPerIntensity * (in.Intensity - intensityThreshold)
	}

	if in.Streak >= 2 {
		b.Streak = min(pointsPerStreakDay*(in.Streak-1), streakBonusCap)
	}

	b.Total = b.Base + b.Duration + b.Variety + b.Intensity + b.Streak
	return b
}

// SessionPoints returns the configured award for a completed session.
func SessionPoints(configured int) int {
	if configured <= 0 {
		return defaultSessionPoint
	}
	return configured
}

func OrderPoints(sessionsGranted, perCredit int) int {
	if sessionsGranted <= 0 || perCredit <= 0 {
		return 0
	}
	return sessionsGranted * perCredit
}

// LevelForXP maps XP onto floor(sqrt(xp/100)) + 1.
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(xp)/xpPerLevelUnit))) + 1
}

// XPForLevel is the minimum XP needed to reach level.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	n := level - 1
	return n * n * xpPerLevelUnit
}

// NextStreak returns the streak after a workout performed at day given the
// previous streak and the date of the last counted workout. Days are UTC.
// A workout dated before the last one leaves the streak untouched.
func NextStreak(current int, last *time.Time, performed time.Time) (int, time.Time) {
	day := utcDay(performed)
	if last == nil {
		return 1, day
	}

	prev := utcDay(*last)
	if current <= 0 {
		if day.Before(prev) {
			return current, prev
		}
		return 1, day
	}

	switch gap := int(day.Sub(prev).Hours() / 24); {
	case gap < 0:
		return current, prev
	case gap == 0:
		return current, prev
	case gap == 1:
		return current + 1, day
	default:
		return 1, day
	}
}

// StreakAlive reports whether a streak ending on last is still unbroken on now.
func StreakAlive(last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}
	return utcDay(now).Sub(utcDay(*last)) <= 24*time.Hour
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
