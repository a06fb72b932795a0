// AngelaMos | 2026
// repository.go

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/outbox"
)

const aggregateType = "training_session"

var (
	errSlotTaken    = core.ConflictError("session is no longer available")
	errNoCredits    = core.ConflictError("no session credits remaining")
	errNotBooked    = core.ConflictError("session is not booked")
	errNotCancelled = core.ConflictError("session can no longer be cancelled")
)

type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	HasOverlap(ctx context.Context, trainerID string, start, end time.Time) (bool, error)
	List(ctx context.Context, params ListParams) ([]Session, int, error)
	ListOpen(ctx context.Context, params ListParams) ([]Session, int, error)
	Book(ctx context.Context, id, clientID string) (*Session, error)
	Release(ctx context.Context, id, clientID string, refund bool) (*Session, error)
	Cancel(ctx context.Context, id string, now time.Time, window time.Duration) (*Session, bool, error)
	Complete(ctx context.Context, id string, event events.Envelope) (*Session, error)
	CreditBalance(ctx context.Context, userID string) (int, error)
}

type repository struct {
	db     core.DB
	outbox *outbox.Store
}

func NewRepository(db core.DB, store *outbox.Store) Repository {
	return &repository{db: db, outbox: store}
}

const sessionColumns = `id, trainer_id, client_id, starts_at, duration_minutes,
	location, status, notes, created_at, updated_at`

func (r *repository) Create(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO training_sessions (
			id, trainer_id, starts_at, duration_minutes, location, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, s, query,
		s.ID,
		s.TrainerID,
		s.StartsAt,
		s.DurationMinutes,
		s.Location,
		s.Status,
		s.Notes,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s,
		`SELECT `+sessionColumns+` FROM training_sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get session: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *repository) HasOverlap(
	ctx context.Context,
	trainerID string,
	start, end time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM training_sessions
			WHERE trainer_id = $1
			  AND status <> 'cancelled'
			  AND starts_at < $3
			  AND starts_at + make_interval(mins => duration_minutes) > $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, trainerID, start, end); err != nil {
		return false, fmt.Errorf("check session overlap: %w", err)
	}
	return exists, nil
}

// List returns sessions the caller takes part in, as trainer or client.
func (r *repository) List(ctx context.Context, params ListParams) ([]Session, int, error) {
	column := "client_id"
	if params.Role == middleware.RoleTrainer {
		column = "trainer_id"
	}

	conditions := []string{column + " = $1"}
	args := []any{params.UserID}

	if params.Status != "" {
		args = append(args, params.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		conditions = append(conditions, fmt.Sprintf("starts_at >= $%d", len(args)))
	}

	return r.page(ctx, strings.Join(conditions, " AND "), args, params)
}

// ListOpen returns bookable slots in the future, soonest first.
func (r *repository) ListOpen(ctx context.Context, params ListParams) ([]Session, int, error) {
	from := time.Now()
	if params.From != nil && params.From.After(from) {
		from = *params.From
	}

	conditions := []string{"status = 'available'", "starts_at > $1"}
	args := []any{from}

	if params.TrainerID != "" {
		args = append(args, params.TrainerID)
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", len(args)))
	}

	return r.page(ctx, strings.Join(conditions, " AND "), args, params)
}

func (r *repository) page(
	ctx context.Context,
	where string,
	args []any,
	params ListParams,
) ([]Session, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM training_sessions WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	args = append(args, params.PageSize, params.Offset())
	query := fmt.Sprintf(`
		SELECT %s FROM training_sessions
		WHERE %s
		ORDER BY starts_at
		LIMIT $%d OFFSET $%d`,
		sessionColumns, where, len(args)-1, len(args))

	var sessions []Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, total, nil
}

// Book claims the slot and spends one credit. The conditional updates make
// concurrent bookings of the same slot or credit safe.
func (r *repository) Book(ctx context.Context, id, clientID string) (*Session, error) {
	var booked Session

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &booked, `
			UPDATE training_sessions
			SET client_id = $2, status = 'booked', updated_at = NOW()
			WHERE id = $1 AND status = 'available' AND starts_at > NOW()
			RETURNING `+sessionColumns, id, clientID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errSlotTaken
			}
			return fmt.Errorf("book session: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE session_credits
			SET balance = balance - 1, updated_at = NOW()
			WHERE user_id = $1 AND balance > 0`, clientID)
		if err != nil {
			return fmt.Errorf("spend session credit: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("spend session credit: %w", err)
		}
		if rows == 0 {
			return errNoCredits
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booked, nil
}

// Release gives a booked slot back to the trainer's open calendar.
func (r *repository) Release(
	ctx context.Context,
	id, clientID string,
	refund bool,
) (*Session, error) {
	var released Session

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &released, `
			UPDATE training_sessions
			SET client_id = NULL, status = 'available', updated_at = NOW()
			WHERE id = $1 AND client_id = $2 AND status = 'booked'
			RETURNING `+sessionColumns, id, clientID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errNotCancelled
			}
			return fmt.Errorf("release session: %w", err)
		}

		if refund {
			return refundCredit(ctx, tx, clientID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &released, nil
}

// Cancel decides the refund from the row as locked, so a booking that lands
// between the caller's read and the lock is still refunded.
func (r *repository) Cancel(
	ctx context.Context,
	id string,
	now time.Time,
	window time.Duration,
) (*Session, bool, error) {
	var before Session
	var cancelled Session
	var refunded bool

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &before, `
			SELECT `+sessionColumns+` FROM training_sessions
			WHERE id = $1 AND status IN ('available', 'booked')
			FOR UPDATE`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errNotCancelled
			}
			return fmt.Errorf("cancel session: %w", err)
		}

		err = tx.GetContext(ctx, &cancelled, `
			UPDATE training_sessions
			SET status = 'cancelled', updated_at = NOW()
			WHERE id = $1
			RETURNING `+sessionColumns, id)
		if err != nil {
			return fmt.Errorf("cancel session: %w", err)
		}

		if before.ClientID == nil || !before.Refundable(now, window) {
			return nil
		}
		refunded = true
		return refundCredit(ctx, tx, *before.ClientID)
	})
	if err != nil {
		return nil, false, err
	}
	return &cancelled, refunded, nil
}

// Complete marks the booked session done and enqueues session.completed.
func (r *repository) Complete(
	ctx context.Context,
	id string,
	event events.Envelope,
) (*Session, error) {
	var done Session

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &done, `
			UPDATE training_sessions
			SET status = 'completed', updated_at = NOW()
			WHERE id = $1 AND status = 'booked'
			RETURNING `+sessionColumns, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errNotBooked
			}
			return fmt.Errorf("complete session: %w", err)
		}

		return r.outbox.Enqueue(ctx, tx, aggregateType, event)
	})
	if err != nil {
		return nil, err
	}
	return &done, nil
}

func (r *repository) CreditBalance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.db.GetContext(ctx, &balance,
		`SELECT balance FROM session_credits WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get session credits: %w", err)
	}
	return balance, nil
}

func refundCredit(ctx context.Context, tx *sqlx.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session_credits (user_id, balance)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = session_credits.balance + 1, updated_at = NOW()`, userID)
	if err != nil {
		return fmt.Errorf("refund session credit: %w", err)
	}
	return nil
}
