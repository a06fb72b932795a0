// AngelaMos | 2026
// handler_test.go

package gamification

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/testutil"
)

func newTestService(repo *memRepo, board *memBoard) *Service {
	svc := NewService(repo, board, config.GamificationConfig{LeaderboardLimit: 10})
	svc.now = func() time.Time { return testNow }
	return svc
}

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(
		r,
		testutil.HeaderAuth,
		middleware.RequireTrainer,
		middleware.RequireAdmin,
	)
	return r
}

func TestProfileDefaultsForNewUser(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemBoard())

	p, err := svc.Profile(t.Context(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, p.Level)
	assert.Zero(t, p.TotalPoints)
	assert.Equal(t, 100, p.NextLevelXP)
	assert.Zero(t, p.Rank)
}

func TestProfileHidesLapsedStreak(t *testing.T) {
	repo := newMemRepo()
	board := newMemBoard()
	last := utcDay(testNow.AddDate(0, 0, -3))
	repo.profiles["u1"] = &Profile{
		UserID:          "u1",
		TotalPoints:     450,
		XP:              450,
		Level:           3,
		CurrentStreak:   6,
		LongestStreak:   6,
		LastWorkoutDate: &last,
	}
	require.NoError(t, board.Record(t.Context(), "u1", 450, 30, testNow))
	require.NoError(t, board.Record(t.Context(), "u2", 900, 10, testNow))

	p, err := newTestService(repo, board).Profile(t.Context(), "u1")
	require.NoError(t, err)

	assert.Zero(t, p.CurrentStreak)
	assert.Equal(t, 6, p.LongestStreak)
	assert.Equal(t, 400, p.LevelXP)
	assert.Equal(t, 900, p.NextLevelXP)
	assert.Equal(t, 2, p.Rank)
	assert.Equal(t, 1, p.WeeklyRank)
	assert.Equal(t, 30, p.WeeklyPoints)
}

func TestLeaderboardRejectsUnknownPeriod(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemBoard())

	_, err := svc.Leaderboard(t.Context(), "monthly", 10)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestJoinChallengeRules(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemBoard())

	open, err := svc.CreateChallenge(t.Context(), "t1", CreateChallengeRequest{
		Title:    "March miles",
		Metric:   MetricWorkouts,
		Goal:     10,
		StartsAt: testNow.AddDate(0, 0, -1),
		EndsAt:   testNow.AddDate(0, 0, 20),
	})
	require.NoError(t, err)

	_, err = svc.JoinChallenge(t.Context(), open.ID, "u1")
	require.NoError(t, err)

	_, err = svc.JoinChallenge(t.Context(), open.ID, "u1")
	assert.ErrorIs(t, err, core.ErrConflict)

	repo.challenges["old"] = &Challenge{
		ID:       "old",
		Metric:   MetricWorkouts,
		Goal:     1,
		StartsAt: testNow.AddDate(0, -1, 0),
		EndsAt:   testNow.AddDate(0, 0, -1),
		Status:   ChallengeActive,
	}
	_, err = svc.JoinChallenge(t.Context(), "old", "u1")
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.JoinChallenge(t.Context(), "missing", "u1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateChallengeValidatesWindow(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemBoard())

	_, err := svc.CreateChallenge(t.Context(), "t1", CreateChallengeRequest{
		Title:    "Backwards",
		Metric:   MetricPoints,
		Goal:     100,
		StartsAt: testNow,
		EndsAt:   testNow.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.CreateChallenge(t.Context(), "t1", CreateChallengeRequest{
		Title:    "Already over",
		Metric:   MetricPoints,
		Goal:     100,
		StartsAt: testNow.AddDate(0, 0, -10),
		EndsAt:   testNow.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSweeps(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemBoard())

	repo.challenges["done"] = &Challenge{ID: "done", Status: ChallengeActive, EndsAt: testNow.Add(-time.Minute)}
	repo.challenges["live"] = &Challenge{ID: "live", Status: ChallengeActive, EndsAt: testNow.Add(time.Hour)}

	n, err := svc.CloseExpiredChallenges(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, ChallengeClosed, repo.challenges["done"].Status)
	assert.Equal(t, ChallengeActive, repo.challenges["live"].Status)

	stale := utcDay(testNow.AddDate(0, 0, -2))
	fresh := utcDay(testNow.AddDate(0, 0, -1))
	repo.profiles["a"] = &Profile{UserID: "a", CurrentStreak: 4, LastWorkoutDate: &stale}
	repo.profiles["b"] = &Profile{UserID: "b", CurrentStreak: 2, LastWorkoutDate: &fresh}

	n, err = svc.ResetLapsedStreaks(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, repo.profiles["a"].CurrentStreak)
	assert.Equal(t, 2, repo.profiles["b"].CurrentStreak)
}

func TestHandlerRequiresAuth(t *testing.T) {
	h := newTestRouter(newTestService(newMemRepo(), newMemBoard()))

	rec := testutil.Do(t, h, http.MethodGet, "/gamification/me", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerProfileAndLedger(t *testing.T) {
	f := newFixture()
	_, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow))
	require.NoError(t, err)

	h := newTestRouter(newTestService(f.repo, f.board))

	rec := testutil.Do(t, h, http.MethodGet, "/gamification/me", nil, "u1", middleware.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile ProfileResponse
	testutil.DecodeData(t, rec, &profile)
	assert.Equal(t, 31, profile.TotalPoints)
	assert.Equal(t, 1, profile.Rank)

	rec = testutil.Do(t, h, http.MethodGet, "/gamification/me/ledger", nil, "u1", middleware.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []LedgerEntryResponse
	env := testutil.DecodeData(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, SourceWorkout, entries[0].SourceType)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.Total)

	rec = testutil.Do(t, h, http.MethodGet, "/gamification/leaderboard?period=weekly", nil, "u2", middleware.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	var board LeaderboardResponse
	testutil.DecodeData(t, rec, &board)
	assert.Equal(t, PeriodWeekly, board.Period)
	require.Len(t, board.Standings, 1)
	assert.Equal(t, "u1", board.Standings[0].UserID)

	rec = testutil.Do(t, h, http.MethodGet, "/gamification/leaderboard?period=daily", nil, "u2", middleware.RoleClient)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerChallengeRoles(t *testing.T) {
	h := newTestRouter(newTestService(newMemRepo(), newMemBoard()))

	body := map[string]any{
		"title":         "Ten sessions",
		"metric":        MetricSessions,
		"goal":          10,
		"reward_points": 200,
		"starts_at":     testNow,
		"ends_at":       testNow.AddDate(0, 1, 0),
	}

	rec := testutil.Do(t, h, http.MethodPost, "/challenges", body, "c1", middleware.RoleClient)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.Do(t, h, http.MethodPost, "/challenges", body, "t1", middleware.RoleTrainer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created ChallengeResponse
	testutil.DecodeData(t, rec, &created)
	assert.Equal(t, "t1", created.CreatedBy)

	rec = testutil.Do(t, h, http.MethodPost, "/challenges/"+created.ID+"/join", nil, "c1", middleware.RoleClient)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Do(t, h, http.MethodGet, "/challenges/"+created.ID+"/leaderboard", nil, "c1", middleware.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	var lb ChallengeLeaderboardResponse
	testutil.DecodeData(t, rec, &lb)
	require.Len(t, lb.Standings, 1)
	assert.Equal(t, "c1", lb.Standings[0].UserID)

	body["metric"] = "calories"
	rec = testutil.Do(t, h, http.MethodPost, "/challenges", body, "t1", middleware.RoleTrainer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerAchievements(t *testing.T) {
	h := newTestRouter(newTestService(newMemRepo(), newMemBoard()))

	body := map[string]any{
		"code":          "Streak-7",
		"name":          "One week streak",
		"criteria":      CriteriaStreakDays,
		"threshold":     7,
		"reward_points": 70,
	}

	rec := testutil.Do(t, h, http.MethodPost, "/admin/achievements", body, "t1", middleware.RoleTrainer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.Do(t, h, http.MethodPost, "/admin/achievements", body, "a1", middleware.RoleAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created AchievementResponse
	testutil.DecodeData(t, rec, &created)
	assert.Equal(t, "streak-7", created.Code)

	rec = testutil.Do(t, h, http.MethodPost, "/admin/achievements", body, "a1", middleware.RoleAdmin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.Do(t, h, http.MethodGet, "/achievements", nil, "u1", middleware.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []AchievementResponse
	testutil.DecodeData(t, rec, &list)
	assert.Len(t, list, 1)

	rec = testutil.Do(t, h, http.MethodGet, "/achievements/me", nil, "u1", middleware.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
}
