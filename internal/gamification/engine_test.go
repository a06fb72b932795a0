// AngelaMos | 2026
// engine_test.go

package gamification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
	"github.com/coachforge/platform/internal/realtime"
)

type memRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex

	profiles     map[string]*Profile
	ledger       []LedgerEntry
	achievements []Achievement
	unlocked     map[string]map[string]time.Time
	challenges   map[string]*Challenge
	participants map[string]*Participation
}

func newMemRepo() *memRepo {
	return &memRepo{
		profiles:     make(map[string]*Profile),
		unlocked:     make(map[string]map[string]time.Time),
		challenges:   make(map[string]*Challenge),
		participants: make(map[string]*Participation),
	}
}

func (m *memRepo) InTx(_ context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memRepo) LockProfile(_ context.Context, userID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = NewProfile(userID)
		m.profiles[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) GetProfile(_ context.Context, userID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) SaveProfile(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memRepo) HasLedgerEntry(_ context.Context, userID, sourceType, sourceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.ledger {
		if e.UserID == userID && e.SourceType == sourceType && e.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) InsertLedger(ctx context.Context, e *LedgerEntry) (bool, error) {
	if ok, _ := m.HasLedgerEntry(ctx, e.UserID, e.SourceType, e.SourceID); ok {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CreatedAt = time.Now()
	m.ledger = append(m.ledger, *e)
	return true, nil
}

func (m *memRepo) ListLedger(_ context.Context, userID string, limit, offset int) ([]LedgerEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LedgerEntry
	for _, e := range m.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	total := len(out)
	if offset >= total {
		return []LedgerEntry{}, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (m *memRepo) CreateAchievement(_ context.Context, a *Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.achievements {
		if existing.Code == a.Code {
			return core.ErrDuplicateKey
		}
	}
	m.achievements = append(m.achievements, *a)
	return nil
}

func (m *memRepo) ListAchievements(_ context.Context) ([]Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Achievement(nil), m.achievements...), nil
}

func (m *memRepo) LockedAchievements(_ context.Context, userID string) ([]Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Achievement
	for _, a := range m.achievements {
		if _, ok := m.unlocked[userID][a.ID]; !ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) UnlockAchievement(_ context.Context, userID, achievementID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unlocked[userID] == nil {
		m.unlocked[userID] = make(map[string]time.Time)
	}
	if _, ok := m.unlocked[userID][achievementID]; ok {
		return false, nil
	}
	m.unlocked[userID][achievementID] = time.Now()
	return true, nil
}

func (m *memRepo) UserAchievements(_ context.Context, userID string) ([]UnlockedAchievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UnlockedAchievement
	for _, a := range m.achievements {
		if at, ok := m.unlocked[userID][a.ID]; ok {
			out = append(out, UnlockedAchievement{Achievement: a, UnlockedAt: at})
		}
	}
	return out, nil
}

func (m *memRepo) CreateChallenge(_ context.Context, c *Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.CreatedAt = time.Now()
	cp := *c
	m.challenges[c.ID] = &cp
	return nil
}

func (m *memRepo) GetChallenge(_ context.Context, id string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) ListChallenges(_ context.Context, activeOnly bool) ([]Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Challenge
	for _, c := range m.challenges {
		if !activeOnly || c.Status == ChallengeActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, nil
}

func (m *memRepo) JoinChallenge(_ context.Context, challengeID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := challengeID + "/" + userID
	if _, ok := m.participants[key]; ok {
		return core.ErrDuplicateKey
	}
	m.participants[key] = &Participation{
		ChallengeID: challengeID,
		UserID:      userID,
		JoinedAt:    time.Now(),
	}
	return nil
}

func (m *memRepo) OpenParticipations(_ context.Context, userID string, at time.Time) ([]Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Participation
	for _, p := range m.participants {
		c := m.challenges[p.ChallengeID]
		if p.UserID != userID || p.CompletedAt != nil || !c.OpenAt(at) {
			continue
		}
		cp := *p
		cp.Challenge = *c
		out = append(out, cp)
	}
	return out, nil
}

func (m *memRepo) SaveProgress(_ context.Context, p *Participation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.participants[p.ChallengeID+"/"+p.UserID] = &cp
	return nil
}

func (m *memRepo) ChallengeStandings(_ context.Context, challengeID string, limit int) ([]Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Standing
	for _, p := range m.participants {
		if p.ChallengeID == challengeID {
			out = append(out, Standing{UserID: p.UserID, Score: p.Progress})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out[:min(limit, len(out))], nil
}

func (m *memRepo) CloseExpiredChallenges(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.challenges {
		if c.Status == ChallengeActive && !c.EndsAt.After(now) {
			c.Status = ChallengeClosed
			n++
		}
	}
	return n, nil
}

func (m *memRepo) ResetLapsedStreaks(_ context.Context, today time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.profiles {
		if p.CurrentStreak > 0 && !StreakAlive(p.LastWorkoutDate, today) {
			p.CurrentStreak = 0
			n++
		}
	}
	return n, nil
}

type memBoard struct {
	mu     sync.Mutex
	totals map[string]int
	weekly map[string]int
	err    error
}

func newMemBoard() *memBoard {
	return &memBoard{totals: make(map[string]int), weekly: make(map[string]int)}
}

func (b *memBoard) Record(_ context.Context, userID string, total, gained int, _ time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.totals[userID] = total
	b.weekly[userID] += gained
	return nil
}

func (b *memBoard) scores(period string) map[string]int {
	if period == PeriodWeekly {
		return b.weekly
	}
	return b.totals
}

func (b *memBoard) Top(_ context.Context, period string, limit int, _ time.Time) ([]Standing, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Standing
	for id, score := range b.scores(period) {
		out = append(out, Standing{UserID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out[:min(limit, len(out))], nil
}

func (b *memBoard) Rank(ctx context.Context, period, userID string, at time.Time) (int, int, error) {
	top, _ := b.Top(ctx, period, 1<<20, at)
	for _, s := range top {
		if s.UserID == userID {
			return s.Rank, s.Score, nil
		}
	}
	return 0, 0, nil
}

type memNotifier struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (n *memNotifier) Publish(_ context.Context, msg realtime.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *memNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.msgs))
	for i, m := range n.msgs {
		out[i] = m.Type
	}
	return out
}

var testNow = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *memRepo
	board    *memBoard
	notifier *memNotifier
	engine   *Engine
}

func newFixture() *fixture {
	f := &fixture{repo: newMemRepo(), board: newMemBoard(), notifier: &memNotifier{}}
	f.engine = NewEngine(f.repo, f.board, f.notifier, config.GamificationConfig{
		SessionPoints:   25,
		PointsPerCredit: 5,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.engine.now = func() time.Time { return testNow }
	return f
}

func workout(logID string, performed time.Time) events.WorkoutLogged {
	return events.WorkoutLogged{
		LogID:             logID,
		UserID:            "u1",
		PerformedAt:       performed,
		DurationMinutes:   45,
		Intensity:         7,
		DistinctExercises: 4,
		TotalSets:         12,
	}
}

func TestAwardWorkoutExtendsStreak(t *testing.T) {
	f := newFixture()
	yesterday := testNow.AddDate(0, 0, -1)
	last := utcDay(yesterday)
	f.repo.profiles["u1"] = &Profile{
		UserID:          "u1",
		Level:           1,
		CurrentStreak:   2,
		LongestStreak:   2,
		LastWorkoutDate: &last,
	}

	award, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow))
	require.NoError(t, err)

	assert.False(t, award.Duplicate)
	assert.Equal(t, 41, award.Points)
	require.NotNil(t, award.Breakdown)
	assert.Equal(t, 10, award.Breakdown.Streak)

	p := f.repo.profiles["u1"]
	assert.Equal(t, 41, p.TotalPoints)
	assert.Equal(t, 41, p.XP)
	assert.Equal(t, 3, p.CurrentStreak)
	assert.Equal(t, 3, p.LongestStreak)
	assert.Equal(t, 1, p.WorkoutsLogged)
	assert.Equal(t, 41, f.board.totals["u1"])

	assert.Equal(t, []string{MsgPointsAwarded, MsgLeaderboardUpdated}, f.notifier.types())
	assert.Equal(t, realtime.UserChannel("u1"), f.notifier.msgs[0].Channel)
	assert.Equal(t, realtime.ChannelLeaderboard, f.notifier.msgs[1].Channel)
}

func TestAwardIsIdempotentPerSource(t *testing.T) {
	f := newFixture()

	_, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow))
	require.NoError(t, err)

	again, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow))
	require.NoError(t, err)

	assert.True(t, again.Duplicate)
	assert.Zero(t, again.Gained())
	assert.Len(t, f.repo.ledger, 1)
	assert.Equal(t, 31, f.repo.profiles["u1"].TotalPoints)
	assert.Equal(t, 1, f.repo.profiles["u1"].WorkoutsLogged)
	assert.Len(t, f.notifier.msgs, 2, "duplicate award publishes nothing")
}

func TestSameDayWorkoutKeepsStreak(t *testing.T) {
	f := newFixture()

	_, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow.Add(-4*time.Hour)))
	require.NoError(t, err)
	_, err = f.engine.AwardWorkout(t.Context(), workout("log-2", testNow))
	require.NoError(t, err)

	p := f.repo.profiles["u1"]
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 2, p.WorkoutsLogged)
}

func TestAchievementRewardsCascade(t *testing.T) {
	f := newFixture()
	f.repo.achievements = []Achievement{
		{ID: "a-first", Code: "first", Name: "First Workout", Criteria: CriteriaTotalWorkouts, Threshold: 1, RewardPoints: 100},
		{ID: "a-hundred", Code: "hundred", Name: "Centurion", Criteria: CriteriaTotalPoints, Threshold: 100},
		{ID: "a-level3", Code: "level3", Name: "Level 3", Criteria: CriteriaLevel, Threshold: 3},
	}

	award, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow))
	require.NoError(t, err)

	assert.Equal(t, 31, award.Points)
	assert.Equal(t, 100, award.Bonus)
	require.Len(t, award.Achievements, 2)
	assert.Equal(t, "a-first", award.Achievements[0].ID)
	assert.Equal(t, "a-hundred", award.Achievements[1].ID)

	assert.Equal(t, 131, award.Profile.TotalPoints)
	assert.Equal(t, 2, award.Profile.Level)
	assert.True(t, award.LeveledUp())

	assert.Equal(t, []string{
		MsgPointsAwarded,
		MsgLevelUp,
		MsgAchievementUnlock,
		MsgAchievementUnlock,
		MsgLeaderboardUpdated,
	}, f.notifier.types())

	ok, _ := f.repo.HasLedgerEntry(t.Context(), "u1", SourceAchievement, "a-first")
	assert.True(t, ok)
}

func TestChallengeCompletesOnce(t *testing.T) {
	f := newFixture()
	f.repo.challenges["c1"] = &Challenge{
		ID:           "c1",
		Title:        "Two a week",
		Metric:       MetricWorkouts,
		Goal:         2,
		RewardPoints: 50,
		StartsAt:     testNow.AddDate(0, 0, -7),
		EndsAt:       testNow.AddDate(0, 0, 7),
		Status:       ChallengeActive,
	}
	require.NoError(t, f.repo.JoinChallenge(t.Context(), "c1", "u1"))

	first, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow.AddDate(0, 0, -1)))
	require.NoError(t, err)
	assert.Empty(t, first.Challenges)

	second, err := f.engine.AwardWorkout(t.Context(), workout("log-2", testNow))
	require.NoError(t, err)
	require.Len(t, second.Challenges, 1)
	assert.Equal(t, 50, second.Bonus)

	third, err := f.engine.AwardWorkout(t.Context(), workout("log-3", testNow))
	require.NoError(t, err)
	assert.Empty(t, third.Challenges)
	assert.Zero(t, third.Bonus)

	part := f.repo.participants["c1/u1"]
	assert.Equal(t, 2, part.Progress)
	assert.NotNil(t, part.CompletedAt)
	assert.Contains(t, f.notifier.types(), MsgChallengeCompleted)
}

func TestPointsChallengeIgnoresOtherMetrics(t *testing.T) {
	f := newFixture()
	f.repo.challenges["c1"] = &Challenge{
		ID:       "c1",
		Metric:   MetricPoints,
		Goal:     1000,
		StartsAt: testNow.AddDate(0, 0, -1),
		EndsAt:   testNow.AddDate(0, 0, 1),
		Status:   ChallengeActive,
	}
	f.repo.challenges["c2"] = &Challenge{
		ID:       "c2",
		Metric:   MetricSessions,
		Goal:     5,
		StartsAt: testNow.AddDate(0, 0, -1),
		EndsAt:   testNow.AddDate(0, 0, 1),
		Status:   ChallengeActive,
	}
	require.NoError(t, f.repo.JoinChallenge(t.Context(), "c1", "u1"))
	require.NoError(t, f.repo.JoinChallenge(t.Context(), "c2", "u1"))

	_, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow))
	require.NoError(t, err)

	assert.Equal(t, 31, f.repo.participants["c1/u1"].Progress)
	assert.Zero(t, f.repo.participants["c2/u1"].Progress)
}

func TestAwardSessionAndOrder(t *testing.T) {
	f := newFixture()

	award, err := f.engine.AwardSession(t.Context(), events.SessionCompleted{
		SessionID: "s1",
		ClientID:  "u1",
		TrainerID: "t1",
		StartsAt:  testNow.Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 25, award.Points)
	assert.Equal(t, 1, award.Profile.SessionsCompleted)

	award, err = f.engine.AwardOrder(t.Context(), events.OrderCompleted{
		OrderID:         "o1",
		UserID:          "u1",
		SessionsGranted: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, award.Points)
	assert.Equal(t, 40, award.Profile.TotalPoints)
}

func TestAwardSurvivesLeaderboardFailure(t *testing.T) {
	f := newFixture()
	f.board.err = errors.New("redis down")

	award, err := f.engine.AwardWorkout(t.Context(), workout("log-1", testNow))
	require.NoError(t, err)
	assert.Equal(t, 31, award.Profile.TotalPoints)
	assert.Len(t, f.notifier.msgs, 2)
}

func TestAwardRequiresIDs(t *testing.T) {
	f := newFixture()
	_, err := f.engine.AwardWorkout(t.Context(), events.WorkoutLogged{UserID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestEventHandlerSkipsEventsWithoutIDs(t *testing.T) {
	f := newFixture()
	h := NewEventHandler(f.engine)

	for _, typ := range []string{
		events.TypeWorkoutLogged,
		events.TypeSessionCompleted,
		events.TypeOrderCompleted,
	} {
		payload := []byte(`{}`)
		if typ == events.TypeOrderCompleted {
			payload = []byte(`{"sessions_granted": 2}`)
		}

		err := h.Handle(t.Context(), events.Envelope{Type: typ, Payload: payload})
		assert.ErrorIs(t, err, events.ErrSkip, typ)
		assert.ErrorIs(t, err, ErrInvalidEvent, typ)
	}

	assert.Empty(t, f.repo.ledger)
	assert.Empty(t, f.notifier.msgs)
}

func TestEventHandlerRoutesByType(t *testing.T) {
	f := newFixture()
	h := NewEventHandler(f.engine)

	env, err := events.New(events.TypeWorkoutLogged, "log-1", "u1", workout("log-1", testNow))
	require.NoError(t, err)
	require.NoError(t, h.Handle(t.Context(), env))
	assert.Equal(t, 31, f.repo.profiles["u1"].TotalPoints)

	env, err = events.New(events.TypeOrderCompleted, "o1", "u1", events.OrderCompleted{
		OrderID: "o1",
		UserID:  "u1",
	})
	require.NoError(t, err)
	require.NoError(t, h.Handle(t.Context(), env))
	assert.Len(t, f.repo.ledger, 1, "orders without credits award nothing")

	err = h.Handle(t.Context(), events.Envelope{Type: "user.renamed"})
	assert.ErrorIs(t, err, events.ErrSkip)

	err = h.Handle(t.Context(), events.Envelope{
		Type:    events.TypeSessionCompleted,
		Payload: []byte(`{"session_id": 7}`),
	})
	assert.ErrorIs(t, err, events.ErrSkip)
}
