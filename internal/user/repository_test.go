// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &User{ID: "u1", Email: "a@b.c", Role: RoleClient})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestAssignTrainerMapsForeignKeyViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	trainer := "ghost"

	mock.ExpectExec("UPDATE users").
		WithArgs("c1", "ghost").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.AssignTrainer(context.Background(), "c1", &trainer)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCountByRoleFillsMissingRoles(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("GROUP BY role").
		WillReturnRows(sqlmock.NewRows([]string{"role", "n"}).
			AddRow("client", 12).
			AddRow("admin", 1))

	counts, err := repo.CountByRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"client": 12, "trainer": 0, "admin": 1}, counts)
}

func TestListFiltersByTrainer(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("client", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM users").
		WithArgs("client", "t1", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "trainer_id"}).
			AddRow("c1", "c1@coach.io", "C1", "client", "t1"))

	users, total, err := repo.List(context.Background(), ListUsersParams{Role: "client", TrainerID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	require.NotNil(t, users[0].TrainerID)
	assert.Equal(t, "t1", *users[0].TrainerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
