// AngelaMos | 2026
// points_test.go

package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkoutPoints(t *testing.T) {
	tests := []struct {
		name string
		in   WorkoutInput
		want WorkoutBreakdown
	}{
		{
			name: "minimal workout",
			in:   WorkoutInput{DurationMinutes: 4, DistinctExercises: 0, Intensity: 3, Streak: 1},
			want: WorkoutBreakdown{Base: 10, Total: 10},
		},
		{
			name: "typical session",
			in:   WorkoutInput{DurationMinutes: 45, DistinctExercises: 4, Intensity: 7, Streak: 3},
			want: WorkoutBreakdown{Base: 10, Duration: 9, Variety: 8, Intensity: 4, Streak: 10, Total: 41},
		},
		{
			name: "every component capped",
			in:   WorkoutInput{DurationMinutes: 500, DistinctExercises: 30, Intensity: 10, Streak: 40},
			want: WorkoutBreakdown{Base: 10, Duration: 24, Variety: 20, Intensity: 10, Streak: 25, Total: 89},
		},
		{
			name: "intensity at threshold earns nothing",
			in:   WorkoutInput{DurationMinutes: 30, DistinctExercises: 2, Intensity: 5},
			want: WorkoutBreakdown{Base: 10, Duration: 6, Variety: 4, Total: 20},
		},
		{
			name: "streak of two",
			in:   WorkoutInput{DurationMinutes: 10, Intensity: 1, Streak: 2},
			want: WorkoutBreakdown{Base: 10, Duration: 2, Streak: 5, Total: 17},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkoutPoints(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Base+got.Duration+got.Variety+got.Intensity+got.Streak, got.Total)
		})
	}
}

func TestLevelForXP(t *testing.T) {
	cases := map[int]int{
		0:     1,
		99:    1,
		100:   2,
		399:   2,
		400:   3,
		900:   4,
		10000: 11,
	}
	for xp, want := range cases {
		assert.Equal(t, want, LevelForXP(xp), "xp=%d", xp)
	}

	for level := 1; level < 20; level++ {
		assert.Equal(t, level, LevelForXP(XPForLevel(level)))
	}
}

func TestOrderAndSessionPoints(t *testing.T) {
	assert.Equal(t, 25, SessionPoints(0))
	assert.Equal(t, 30, SessionPoints(30))
	assert.Equal(t, 50, OrderPoints(10, 5))
	assert.Zero(t, OrderPoints(0, 5))
}

func TestNextStreak(t *testing.T) {
	day := func(d, h int) time.Time {
		return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC)
	}
	ptr := func(t time.Time) *time.Time { return &t }

	streak, last := NextStreak(0, nil, day(10, 8))
	assert.Equal(t, 1, streak)
	assert.Equal(t, day(10, 0), last)

	streak, _ = NextStreak(3, ptr(day(10, 0)), day(10, 22))
	assert.Equal(t, 3, streak, "same day keeps the streak")

	streak, last = NextStreak(3, ptr(day(10, 0)), day(11, 6))
	assert.Equal(t, 4, streak)
	assert.Equal(t, day(11, 0), last)

	streak, _ = NextStreak(4, ptr(day(11, 0)), day(13, 6))
	assert.Equal(t, 1, streak, "a gap resets")

	streak, last = NextStreak(4, ptr(day(11, 0)), day(9, 6))
	assert.Equal(t, 4, streak, "backdated logs do not move the streak")
	assert.Equal(t, day(11, 0), last)

	streak, last = NextStreak(0, ptr(day(11, 0)), day(8, 6))
	assert.Zero(t, streak, "a backdated log does not revive a reset streak")
	assert.Equal(t, day(11, 0), last, "the last workout date never moves backwards")

	streak, last = NextStreak(0, ptr(day(11, 0)), day(14, 6))
	assert.Equal(t, 1, streak)
	assert.Equal(t, day(14, 0), last)

	offset := time.FixedZone("UTC-5", -5*3600)
	streak, _ = NextStreak(2, ptr(day(10, 0)), time.Date(2026, 3, 10, 21, 0, 0, 0, offset))
	assert.Equal(t, 3, streak, "days are counted in UTC")
}

func TestStreakAlive(t *testing.T) {
	last := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, StreakAlive(&last, last.Add(30*time.Hour)))
	assert.False(t, StreakAlive(&last, last.Add(49*time.Hour)))
	assert.False(t, StreakAlive(nil, last))
}
