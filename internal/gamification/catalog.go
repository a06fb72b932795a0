// AngelaMos | 2026
// catalog.go

package gamification

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/coachforge/platform/internal/core"
)

// DefaultAchievements is the catalog installed by `coachctl seed
// achievements` when no file is given.
var DefaultAchievements = []CreateAchievementRequest{
	{Code: "first_workout", Name: "First Rep", Description: "Log your first workout.", Criteria: CriteriaTotalWorkouts, Threshold: 1, RewardPoints: 10},
	{Code: "workouts_10", Name: "Regular", Description: "Log 10 workouts.", Criteria: CriteriaTotalWorkouts, Threshold: 10, RewardPoints: 50},
	{Code: "workouts_100", Name: "Centurion", Description: "Log 100 workouts.", Criteria: CriteriaTotalWorkouts, Threshold: 100, RewardPoints: 500},
	{Code: "streak_7", Name: "One Week Strong", Description: "Train seven days in a row.", Criteria: CriteriaStreakDays, Threshold: 7, RewardPoints: 70},
	{Code: "streak_30", Name: "Habit Formed", Description: "Train thirty days in a row.", Criteria: CriteriaStreakDays, Threshold: 30, RewardPoints: 300},
	{Code: "points_1000", Name: "Thousand Club", Description: "Earn 1000 points.", Criteria: CriteriaTotalPoints, Threshold: 1000, RewardPoints: 100},
	{Code: "level_5", Name: "Level 5", Description: "Reach level 5.", Criteria: CriteriaLevel, Threshold: 5, RewardPoints: 50},
	{Code: "first_session", Name: "Coached", Description: "Complete a session with your trainer.", Criteria: CriteriaSessionsCompleted, Threshold: 1, RewardPoints: 20},
}

// LoadCatalog reads achievements from the `achievements` list of a YAML
// file. Keys match the JSON field names of CreateAchievementRequest.
func LoadCatalog(path string) ([]CreateAchievementRequest, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	var out []CreateAchievementRequest
	if err := k.UnmarshalWithConf("achievements", &out, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return out, nil
}

type SeedResult struct {
	Created int
	Skipped int
}

// SeedAchievements creates every catalog entry whose code is not taken yet.
// Invalid entries abort the run before anything is written.
func (s *Service) SeedAchievements(
	ctx context.Context,
	catalog []CreateAchievementRequest,
) (SeedResult, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	for i, req := range catalog {
		if err := v.Struct(req); err != nil {
			return SeedResult{}, fmt.Errorf("catalog entry %d (%s): %w", i, req.Code, err)
		}
	}

	var res SeedResult
	for _, req := range catalog {
		_, err := s.CreateAchievement(ctx, req)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, core.ErrDuplicateKey):
			res.Skipped++
		default:
			return res, fmt.Errorf("seed %s: %w", req.Code, err)
		}
	}
	return res, nil
}
