// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/testutil"
)

type stubCounter struct {
	counts *PlatformCounts
	err    error
}

func (s stubCounter) PlatformCounts(context.Context) (*PlatformCounts, error) {
	return s.counts, s.err
}

func newRouter(cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, testutil.HeaderAuth, middleware.RequireAdmin)
	return r
}

func TestStatsRequireAdmin(t *testing.T) {
	h := newRouter(HandlerConfig{})

	rec := testutil.Do(t, h, http.MethodGet, "/admin/stats", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = testutil.Do(t, h, http.MethodGet, "/admin/stats", nil, "t1", middleware.RoleTrainer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSystemStatsIncludesPlatformCounts(t *testing.T) {
	h := newRouter(HandlerConfig{
		DBStats: func() sql.DBStats { return sql.DBStats{OpenConnections: 3, InUse: 1} },
		DBPing:  func(context.Context) error { return nil },
		RedisPing: func(context.Context) error {
			return errors.New("connection refused")
		},
		Counter: stubCounter{counts: &PlatformCounts{
			UsersByRole:   map[string]int{"client": 40, "trainer": 4},
			WorkoutLogs:   310,
			PendingOutbox: 2,
		}},
	})

	rec := testutil.Do(t, h, http.MethodGet, "/admin/stats", nil, "a1", middleware.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SystemStatsResponse
	testutil.DecodeData(t, rec, &resp)
	assert.True(t, resp.Database.Healthy)
	require.NotNil(t, resp.Database.Stats)
	assert.Equal(t, 3, resp.Database.Stats.OpenConnections)
	assert.False(t, resp.Redis.Healthy)
	assert.Nil(t, resp.Redis.Stats)
	require.NotNil(t, resp.Platform)
	assert.Equal(t, 40, resp.Platform.UsersByRole["client"])
	assert.Equal(t, 2, resp.Platform.PendingOutbox)
	assert.NotEmpty(t, resp.Runtime.GoVersion)
}

func TestPlatformStatsErrors(t *testing.T) {
	rec := testutil.Do(t, newRouter(HandlerConfig{}),
		http.MethodGet, "/admin/stats/platform", nil, "a1", middleware.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.Do(t, newRouter(HandlerConfig{Counter: stubCounter{err: errors.New("db down")}}),
		http.MethodGet, "/admin/stats/platform", nil, "a1", middleware.RoleAdmin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCounterQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).
			AddRow("client", 12).
			AddRow("admin", 1))
	mock.ExpectQuery("FROM workout_logs").
		WillReturnRows(sqlmock.NewRows([]string{
			"workout_logs", "workout_logs_7d", "orders", "revenue_cents",
			"sessions_booked", "active_challenges",
		}).AddRow(90, 14, 6, 52000, 3, 2))
	mock.ExpectQuery("FROM outbox").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	counts, err := NewCounter(sqlx.NewDb(db, "sqlmock")).PlatformCounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"client": 12, "admin": 1}, counts.UsersByRole)
	assert.Equal(t, 90, counts.WorkoutLogs)
	assert.Equal(t, 14, counts.WorkoutLogs7d)
	assert.Equal(t, int64(52000), counts.RevenueCents)
	assert.Equal(t, 5, counts.PendingOutbox)
	assert.Equal(t, 2, counts.ActiveChallenges)
	assert.NoError(t, mock.ExpectationsWereMet())
}
