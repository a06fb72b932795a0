// AngelaMos | 2026
// entity.go

package gamification

import (
	"time"
)

const (
	SourceWorkout     = "workout_log"
	SourceSession     = "training_session"
	SourceOrder       = "order"
	SourceAchievement = "achievement"
	SourceChallenge   = "challenge"
)

const (
	CriteriaTotalWorkouts     = "total_workouts"
	CriteriaStreakDays        = "streak_days"
	CriteriaTotalPoints       = "total_points"
	CriteriaLevel             = "level"
	CriteriaSessionsCompleted = "sessions_completed"
)

const (
	MetricWorkouts = "workouts"
	MetricPoints   = "points"
	MetricSessions = "sessions"

	ChallengeActive = "active"
	ChallengeClosed = "closed"
)

type Profile struct {
	UserID            string     `db:"user_id"`
	TotalPoints       int        `db:"total_points"`
	XP                int        `db:"xp"`
	Level             int        `db:"level"`
	CurrentStreak     int        `db:"current_streak"`
	LongestStreak     int        `db:"longest_streak"`
	LastWorkoutDate   *time.Time `db:"last_workout_date"`
	WorkoutsLogged    int        `db:"workouts_logged"`
	SessionsCompleted int        `db:"sessions_completed"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func NewProfile(userID string) *Profile {
	return &Profile{UserID: userID, Level: 1}
}

// AddPoints grants points and the same amount of XP, then recomputes the
// level.
func (p *Profile) AddPoints(points int) {
	p.TotalPoints += points
	p.XP += points
	p.Level = LevelForXP(p.XP)
}

// Meets reports whether the profile satisfies an achievement's criteria.
func (p *Profile) Meets(a Achievement) bool {
	var value int
	switch a.Criteria {
	case CriteriaTotalWorkouts:
		value = p.WorkoutsLogged
	case CriteriaStreakDays:
		value = max(p.CurrentStreak, p.LongestStreak)
	case CriteriaTotalPoints:
		value = p.TotalPoints
	case CriteriaLevel:
		value = p.Level
	case CriteriaSessionsCompleted:
		value = p.SessionsCompleted
	default:
		return false
	}
	return value >= a.Threshold
}

type LedgerEntry struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	SourceType string    `db:"source_type"`
	SourceID   string    `db:"source_id"`
	Points     int       `db:"points"`
	Reason     string    `db:"reason"`
	CreatedAt  time.Time `db:"created_at"`
}

type Achievement struct {
	ID           string    `db:"id"`
	Code         string    `db:"code"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Criteria     string    `db:"criteria"`
	Threshold    int       `db:"threshold"`
	RewardPoints int       `db:"reward_points"`
	CreatedAt    time.Time `db:"created_at"`
}

type UnlockedAchievement struct {
	Achievement
	UnlockedAt time.Time `db:"unlocked_at"`
}

type Challenge struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Metric       string    `db:"metric"`
	Goal         int       `db:"goal"`
	RewardPoints int       `db:"reward_points"`
	StartsAt     time.Time `db:"starts_at"`
	EndsAt       time.Time `db:"ends_at"`
	Status       string    `db:"status"`
	CreatedBy    string    `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
}

// OpenAt reports whether the challenge accepts progress at t.
func (c *Challenge) OpenAt(t time.Time) bool {
	return c.Status == ChallengeActive && !t.Before(c.StartsAt) && t.Before(c.EndsAt)
}

// Participation is a user's progress in one challenge.
type Participation struct {
	ChallengeID string     `db:"challenge_id"`
	UserID      string     `db:"user_id"`
	Progress    int        `db:"progress"`
	CompletedAt *time.Time `db:"completed_at"`
	JoinedAt    time.Time  `db:"joined_at"`
	Challenge   Challenge  `db:"challenge"`
}

// Standing is one row of a leaderboard.
type Standing struct {
	Rank   int    `json:"rank" db:"rank"`
	UserID string `json:"user_id" db:"user_id"`
	Score  int    `json:"score" db:"score"`
}
