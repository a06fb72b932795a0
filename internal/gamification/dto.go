// AngelaMos | 2026
// dto.go

package gamification

import (
	"time"
)

type CreateAchievementRequest struct {
	Code         string `json:"code"          validate:"required,min=2,max=64"`
	Name         string `json:"name"          validate:"required,min=1,max=120"`
	Description  string `json:"description"   validate:"max=500"`
	Criteria     string `json:"criteria"      validate:"required,oneof=total_workouts streak_days total_points level sessions_completed"`
	Threshold    int    `json:"threshold"     validate:"required,min=1"`
	RewardPoints int    `json:"reward_points" validate:"min=0,max=10000"`
}

type CreateChallengeRequest struct {
	Title        string    `json:"title"         validate:"required,min=1,max=120"`
	Description  string    `json:"description"   validate:"max=2000"`
	Metric       string    `json:"metric"        validate:"required,oneof=workouts points sessions"`
	Goal         int       `json:"goal"          validate:"required,min=1"`
	RewardPoints int       `json:"reward_points" validate:"min=0,max=10000"`
	StartsAt     time.Time `json:"starts_at"     validate:"required"`
	EndsAt       time.Time `json:"ends_at"       validate:"required"`
}

type ProfileResponse struct {
	UserID            string     `json:"user_id"`
	TotalPoints       int        `json:"total_points"`
	XP                int        `json:"xp"`
	Level             int        `json:"level"`
	LevelXP           int        `json:"level_xp"`
	NextLevelXP       int        `json:"next_level_xp"`
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastWorkoutDate   *time.Time `json:"last_workout_date,omitempty"`
	WorkoutsLogged    int        `json:"workouts_logged"`
	SessionsCompleted int        `json:"sessions_completed"`
	Rank              int        `json:"rank,omitempty"`
	WeeklyRank        int        `json:"weekly_rank,omitempty"`
	WeeklyPoints      int        `json:"weekly_points"`
}

type LedgerEntryResponse struct {
	ID         string    `json:"id"`
	SourceType string    `json:"source_type"`
	SourceID   string    `json:"source_id"`
	Points     int       `json:"points"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

type AchievementResponse struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Criteria     string     `json:"criteria"`
	Threshold    int        `json:"threshold"`
	RewardPoints int        `json:"reward_points"`
	UnlockedAt   *time.Time `json:"unlocked_at,omitempty"`
}

type ChallengeResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Metric       string    `json:"metric"`
	Goal         int       `json:"goal"`
	RewardPoints int       `json:"reward_points"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Status       string    `json:"status"`
	CreatedBy    string    `json:"created_by"`
}

type LeaderboardResponse struct {
	Period    string     `json:"period"`
	Standings []Standing `json:"standings"`
}

type ChallengeLeaderboardResponse struct {
	Challenge ChallengeResponse `json:"challenge"`
	Standings []Standing        `json:"standings"`
}

func ToLedgerResponseList(entries []LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = LedgerEntryResponse{
			ID:         e.ID,
			SourceType: e.SourceType,
			SourceID:   e.SourceID,
			Points:     e.Points,
			Reason:     e.Reason,
			CreatedAt:  e.CreatedAt,
		}
	}
	return out
}

func ToAchievementResponse(a *Achievement) AchievementResponse {
	return AchievementResponse{
		ID:           a.ID,
		Code:         a.Code,
		Name:         a.Name,
		Description:  a.Description,
		Criteria:     a.Criteria,
		Threshold:    a.Threshold,
		RewardPoints: a.RewardPoints,
	}
}

func ToAchievementResponseList(list []Achievement) []AchievementResponse {
	out := make([]AchievementResponse, len(list))
	for i := range list {
		out[i] = ToAchievementResponse(&list[i])
	}
	return out
}

func ToUnlockedResponseList(list []UnlockedAchievement) []AchievementResponse {
	out := make([]AchievementResponse, len(list))
	for i := range list {
		out[i] = ToAchievementResponse(&list[i].Achievement)
		out[i].UnlockedAt = &list[i].UnlockedAt
	}
	return out
}

func ToChallengeResponse(c *Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Metric:       c.Metric,
		Goal:         c.Goal,
		RewardPoints: c.RewardPoints,
		StartsAt:     c.StartsAt,
		EndsAt:       c.EndsAt,
		Status:       c.Status,
		CreatedBy:    c.CreatedBy,
	}
}

func ToChallengeResponseList(list []Challenge) []ChallengeResponse {
	out := make([]ChallengeResponse, len(list))
	for i := range list {
		out[i] = ToChallengeResponse(&list[i])
	}
	return out
}
