// AngelaMos | 2026
// service_test.go

package workoutplan

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/testutil"
)

type memRepo struct {
	mu    sync.Mutex
	plans map[string]*Plan
}

func (m *memRepo) Create(_ context.Context, p *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, params ListParams) ([]Plan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Plan
	for _, p := range m.plans {
		if params.TrainerID != "" && p.TrainerID != params.TrainerID {
			continue
		}
		if params.ClientID != "" && p.ClientID != params.ClientID {
			continue
		}
		if params.HideDrafts && p.Status == StatusDraft {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memRepo) Update(_ context.Context, p *Plan, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plans, id)
	return nil
}

type staticRoster map[string]string

func (s staticRoster) IsTrainerOf(_ context.Context, trainerID, clientID string) (bool, error) {
	return s[clientID] == trainerID, nil
}

func newTestRouter() (http.Handler, *memRepo) {
	repo := &memRepo{plans: make(map[string]*Plan)}
	svc := NewService(repo, staticRoster{"client-1": "trainer-1"})

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, testutil.HeaderAuth, middleware.RequireTrainer)
	return r, repo
}

func createPlan(t *testing.T, r http.Handler, status string) PlanResponse {
	t.Helper()
	body := map[string]any{
		"client_id":  "client-1",
		"title":      "Phase 1 Stabilization",
		"status":     status,
		"start_date": "2026-01-05",
		"end_date":   "2026-02-01",
		"exercises": []map[string]any{
			{"exercise_id": "ex-plank", "sets": 3, "reps": 1, "tempo": "4-2-1"},
			{"exercise_id": "ex-squat", "sets": 2, "reps": 15, "rest_seconds": 30},
		},
	}

	rec := testutil.Do(t, r, http.MethodPost, "/workout-plans", body, "trainer-1", middleware.RoleTrainer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var plan PlanResponse
	testutil.DecodeData(t, rec, &plan)
	return plan
}

func TestCreatePlanOrdersExercises(t *testing.T) {
	r, _ := newTestRouter()

	plan := createPlan(t, r, "")
	assert.Equal(t, StatusDraft, plan.Status)
	require.Len(t, plan.Exercises, 2)
	assert.Equal(t, 0, plan.Exercises[0].Position)
	assert.Equal(t, 60, plan.Exercises[0].RestSeconds)
	assert.Equal(t, 1, plan.Exercises[1].Position)
	assert.Equal(t, 30, plan.Exercises[1].RestSeconds)
	require.NotNil(t, plan.StartDate)
	assert.Equal(t, "2026-01-05", *plan.StartDate)
}

func TestCreatePlanRequiresRosterClient(t *testing.T) {
	r, _ := newTestRouter()

	rec := testutil.Do(t, r, http.MethodPost, "/workout-plans",
		map[string]any{"client_id": "client-9", "title": "Nope"}, "trainer-1", middleware.RoleTrainer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.Do(t, r, http.MethodPost, "/workout-plans",
		map[string]any{"client_id": "client-9", "title": "Admin plan"}, "admin-1", middleware.RoleAdmin)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreatePlanRejectsInvertedDates(t *testing.T) {
	r, _ := newTestRouter()

	rec := testutil.Do(t, r, http.MethodPost, "/workout-plans", map[string]any{
		"client_id":  "client-1",
		"title":      "Backwards",
		"start_date": "2026-03-01",
		"end_date":   "2026-02-01",
	}, "trainer-1", middleware.RoleTrainer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientCannotSeeDrafts(t *testing.T) {
	r, _ := newTestRouter()
	draft := createPlan(t, r, StatusDraft)
	active := createPlan(t, r, StatusActive)

	rec := testutil.Do(t, r, http.MethodGet, "/workout-plans/"+draft.ID, nil, "client-1", middleware.RoleClient)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.Do(t, r, http.MethodGet, "/workout-plans/"+active.ID, nil, "client-1", middleware.RoleClient)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Do(t, r, http.MethodGet, "/workout-plans", nil, "client-1", middleware.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	var plans []PlanResponse
	testutil.DecodeData(t, rec, &plans)
	require.Len(t, plans, 1)
	assert.Equal(t, active.ID, plans[0].ID)

	rec = testutil.Do(t, r, http.MethodGet, "/workout-plans/"+active.ID, nil, "client-2", middleware.RoleClient)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePlanByOwnerOnly(t *testing.T) {
	r, _ := newTestRouter()
	plan := createPlan(t, r, StatusDraft)

	rec := testutil.Do(t, r, http.MethodPut, "/workout-plans/"+plan.ID,
		map[string]any{"status": "active"}, "trainer-2", middleware.RoleTrainer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.Do(t, r, http.MethodPut, "/workout-plans/"+plan.ID,
		map[string]any{
			"status":    "active",
			"exercises": []map[string]any{{"exercise_id": "ex-lunge", "sets": 4, "reps": 8}},
		}, "trainer-1", middleware.RoleTrainer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got PlanResponse
	testutil.DecodeData(t, rec, &got)
	assert.Equal(t, StatusActive, got.Status)
	require.Len(t, got.Exercises, 1)
	assert.Equal(t, "ex-lunge", got.Exercises[0].ExerciseID)
	require.NotNil(t, got.StartDate)
	assert.Equal(t, "2026-01-05", *got.StartDate)
}

func TestDeletePlan(t *testing.T) {
	r, repo := newTestRouter()
	plan := createPlan(t, r, StatusActive)

	rec := testutil.Do(t, r, http.MethodDelete, "/workout-plans/"+plan.ID, nil, "client-1", middleware.RoleClient)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.Do(t, r, http.MethodDelete, "/workout-plans/"+plan.ID, nil, "trainer-1", middleware.RoleTrainer)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.plans)
}
