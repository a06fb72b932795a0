// AngelaMos | 2026
// repository_test.go

package storefront

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
	"github.com/coachforge/platform/internal/outbox"
	"github.com/coachforge/platform/internal/testutil"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := outbox.NewStore(config.KafkaConfig{
		WorkoutTopic: "coach.workout-logs",
		SessionTopic: "coach.sessions",
		OrderTopic:   "coach.orders",
	})
	return NewRepository(sqlx.NewDb(db, "sqlmock"), store), mock
}

func sampleOrder(t *testing.T) (*Order, events.Envelope) {
	t.Helper()
	order := &Order{
		ID: "o1", UserID: "u1", Status: OrderPaid, TotalCents: 12000,
		Currency: "USD", SessionsGranted: 2,
		Items: []OrderItem{
			{ID: "oi1", ItemID: "i1", Name: "Single", Quantity: 2, UnitPriceCents: 6000, SessionCount: 1},
		},
	}
	ev, err := events.New(events.TypeOrderCompleted, order.ID, order.UserID, events.OrderCompleted{OrderID: "o1"})
	require.NoError(t, err)
	return order, ev
}

func TestCreateOrderCreditsSessionsAndEnqueuesEvent(t *testing.T) {
	repo, mock := newMockRepo(t)
	order, ev := sampleOrder(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs("o1", "u1", OrderPaid, 12000, "USD", 2).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs("oi1", "o1", "i1", "Single", 2, 6000, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO session_credits").
		WithArgs("u1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs("order", "o1", events.TypeOrderCompleted, "coach.orders", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateOrder(context.Background(), order, ev))
	assert.Equal(t, now, order.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRollsBackWhenCreditFails(t *testing.T) {
	repo, mock := newMockRepo(t)
	order, ev := sampleOrder(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO session_credits").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	assert.Error(t, repo.CreateOrder(context.Background(), order, ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListItemsHidesInactiveByDefault(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM storefront_items WHERE deleted_at IS NULL AND active`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM storefront_items`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	params := ListItemsParams{}
	params.Normalize()
	_, _, err := repo.ListItems(context.Background(), params)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItemMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE storefront_items").
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteItem(context.Background(), "gone"), core.ErrNotFound)
}

func TestRedisCartKeyIsNamespaced(t *testing.T) {
	cart := NewRedisCart(nil, time.Minute)
	assert.Equal(t, "coach:cart:u1", cart.key("u1"))
}

func TestRedisCart(t *testing.T) {
	rdb := testutil.Redis(t)
	ctx := context.Background()
	cart := NewRedisCart(rdb, time.Minute)
	cart.prefix = "test:cart:" + t.Name() + ":"
	t.Cleanup(func() { _ = cart.Clear(context.Background(), "u1") })

	require.NoError(t, cart.SetQuantity(ctx, "u1", "i1", 2))
	require.NoError(t, cart.SetQuantity(ctx, "u1", "i2", 1))
	require.NoError(t, cart.SetQuantity(ctx, "u1", "i1", 3))

	lines, err := cart.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"i1": 3, "i2": 1}, lines)

	ttl, err := rdb.TTL(ctx, cart.key("u1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cart.Remove(ctx, "u1", "i2"))
	lines, _ = cart.Lines(ctx, "u1")
	assert.Equal(t, map[string]int{"i1": 3}, lines)

	require.NoError(t, cart.Clear(ctx, "u1"))
	lines, _ = cart.Lines(ctx, "u1")
	assert.Empty(t, lines)
}
