// AngelaMos | 2026
// repository_test.go

package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/core"
)

var profileCols = []string{
	"user_id", "total_points", "xp", "level", "current_streak",
	"longest_streak", "last_workout_date", "workouts_logged",
	"sessions_completed", "updated_at",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestInTxLocksProfileAndSkipsDuplicateLedger(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO gamification_profiles").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM gamification_profiles .* FOR UPDATE").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("u1", 120, 120, 2, 3, 5, now, 9, 1, now))
	mock.ExpectExec("INSERT INTO point_ledger").
		WithArgs("e1", "u1", SourceWorkout, "log-1", 31, "workout logged").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var inserted bool
	err := repo.InTx(context.Background(), func(s Store) error {
		p, err := s.LockProfile(context.Background(), "u1")
		if err != nil {
			return err
		}
		assert.Equal(t, 120, p.TotalPoints)
		assert.Equal(t, 2, p.Level)

		inserted, err = s.InsertLedger(context.Background(), &LedgerEntry{
			ID:         "e1",
			UserID:     "u1",
			SourceType: SourceWorkout,
			SourceID:   "log-1",
			Points:     31,
			Reason:     "workout logged",
		})
		return err
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE gamification_profiles").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(s Store) error {
		return s.SaveProfile(context.Background(), NewProfile("u1"))
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM gamification_profiles").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(profileCols))

	_, err := repo.GetProfile(context.Background(), "u1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestOpenParticipationsScansChallenge(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	cols := []string{
		"challenge_id", "user_id", "progress", "completed_at", "joined_at",
		"challenge.id", "challenge.title", "challenge.description",
		"challenge.metric", "challenge.goal", "challenge.reward_points",
		"challenge.starts_at", "challenge.ends_at", "challenge.status",
		"challenge.created_by", "challenge.created_at",
	}
	mock.ExpectQuery("FROM challenge_participants cp").
		WithArgs("u1", now).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"c1", "u1", 3, nil, now,
			"c1", "Ten workouts", "", MetricWorkouts, 10, 100,
			now.Add(-time.Hour), now.Add(time.Hour), ChallengeActive,
			"t1", now,
		))

	parts, err := repo.OpenParticipations(context.Background(), "u1", now)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, 3, parts[0].Progress)
	assert.Nil(t, parts[0].CompletedAt)
	assert.Equal(t, 10, parts[0].Challenge.Goal)
	assert.Equal(t, MetricWorkouts, parts[0].Challenge.Metric)
}

func TestJoinChallengeMapsConstraintErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO challenge_participants").
		WithArgs("c1", "u1").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectExec("INSERT INTO challenge_participants").
		WithArgs("c2", "u1").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.JoinChallenge(context.Background(), "c1", "u1")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	err = repo.JoinChallenge(context.Background(), "c2", "u1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestResetLapsedStreaksUsesYesterday(t *testing.T) {
	repo, mock := newMockRepo(t)
	today := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE gamification_profiles").
		WithArgs(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.ResetLapsedStreaks(context.Background(), today)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestCloseExpiredChallenges(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec("UPDATE challenges SET status = 'closed'").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.CloseExpiredChallenges(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
