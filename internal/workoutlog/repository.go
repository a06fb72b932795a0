// AngelaMos | 2026
// repository.go

package workoutlog

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
	"github.com/coachforge/platform/internal/outbox"
)

const aggregateType = "workout_log"

type Repository interface {
	Create(ctx context.Context, log *Log, event events.Envelope) error
	GetByID(ctx context.Context, id string) (*Log, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*Log, error)
	List(ctx context.Context, params ListParams) ([]Log, int, error)
	Delete(ctx context.Context, id string) error
	WeeklyProgress(
		ctx context.Context,
		userID, exerciseID string,
		since time.Time,
	) ([]WeekBucket, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db     core.DB
	outbox *outbox.Store
}

func NewRepository(db core.DB, store *outbox.Store) Repository {
	return &repository{db: db, outbox: store}
}

const logColumns = `id, user_id, plan_id, title, performed_at, duration_minutes,
	intensity, notes, idempotency_key, points_estimate, created_at, updated_at`

// Create stores the log, its sets and the workout.logged event atomically.
func (r *repository) Create(ctx context.Context, log *Log, event events.Envelope) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO workout_logs (
				id, user_id, plan_id, title, performed_at, duration_minutes,
				intensity, notes, idempotency_key, points_estimate
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at`

		err := tx.GetContext(ctx, log, query,
			log.ID,
			log.UserID,
			log.PlanID,
			log.Title,
			log.PerformedAt,
			log.DurationMinutes,
			log.Intensity,
			log.Notes,
			log.IdempotencyKey,
			log.PointsEstimate,
		)
		if err != nil {
			if core.IsDuplicateKeyError(err) {
				return fmt.Errorf("create workout log: %w", core.ErrDuplicateKey)
			}
			if core.IsForeignKeyError(err) {
				return core.ValidationError("unknown workout plan")
			}
			return fmt.Errorf("create workout log: %w", err)
		}

		for _, s := range log.Sets {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO workout_log_sets (
					id, log_id, exercise_id, set_number, reps, weight_kg,
					duration_seconds
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				s.ID,
				log.ID,
				s.ExerciseID,
				s.SetNumber,
				s.Reps,
				s.WeightKg,
				s.DurationSeconds,
			)
			if err != nil {
				if core.IsForeignKeyError(err) {
					return core.ValidationError("unknown exercise " + s.ExerciseID)
				}
				return fmt.Errorf("create workout log set: %w", err)
			}
		}

		return r.outbox.Enqueue(ctx, tx, aggregateType, event)
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*Log, error) {
	query := `SELECT ` + logColumns + ` FROM workout_logs WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *repository) FindByIdempotencyKey(
	ctx context.Context,
	userID, key string,
) (*Log, error) {
	query := `SELECT ` + logColumns + `
		FROM workout_logs
		WHERE user_id = $1 AND idempotency_key = $2`
	return r.getOne(ctx, query, userID, key)
}

func (r *repository) getOne(ctx context.Context, query string, args ...any) (*Log, error) {
	var log Log
	if err := r.db.GetContext(ctx, &log, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get workout log: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get workout log: %w", err)
	}

	sets, err := r.sets(ctx, log.ID)
	if err != nil {
		return nil, err
	}
	log.Sets = sets
	return &log, nil
}

func (r *repository) sets(ctx context.Context, logID string) ([]Set, error) {
	query := `
		SELECT id, log_id, exercise_id, set_number, reps, weight_kg, duration_seconds
		FROM workout_log_sets
		WHERE log_id = $1
		ORDER BY exercise_id, set_number`

	var sets []Set
	if err := r.db.SelectContext(ctx, &sets, query, logID); err != nil {
		return nil, fmt.Errorf("list workout log sets: %w", err)
	}
	return sets, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Log, int, error) {
	conditions := []string{"user_id = $1"}
	args := []any{params.UserID}

	if params.From != nil {
		args = append(args, *params.From)
		conditions = append(conditions, fmt.Sprintf("performed_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		conditions = append(conditions, fmt.Sprintf("performed_at < $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM workout_logs WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count workout logs: %w", err)
	}

	args = append(args, params.PageSize, params.Offset())
	query := fmt.Sprintf(`
		SELECT %s FROM workout_logs
		WHERE %s
		ORDER BY performed_at DESC, id
		LIMIT $%d OFFSET $%d`,
		logColumns, where, len(args)-1, len(args))

	var logs []Log
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list workout logs: %w", err)
	}

	return logs, total, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workout_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workout log: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete workout log: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete workout log: %w", core.ErrNotFound)
	}
	return nil
}

// WeeklyProgress aggregates sets per ISO week (Monday start, UTC). An empty
// exerciseID aggregates every exercise.
func (r *repository) WeeklyProgress(
	ctx context.Context,
	userID, exerciseID string,
	since time.Time,
) ([]WeekBucket, error) {
	query := `
		SELECT date_trunc('week', l.performed_at AT TIME ZONE 'UTC') AS week_start,
		       COALESCE(SUM(s.reps * COALESCE(s.weight_kg, 0)), 0)::float8 AS volume,
		       COALESCE(MAX(s.weight_kg), 0)::float8 AS best_weight,
		       COUNT(DISTINCT l.id) AS sessions
		FROM workout_logs l
		JOIN workout_log_sets s ON s.log_id = l.id
		WHERE l.user_id = $1
		  AND l.performed_at >= $2
		  AND ($3::text = '' OR s.exercise_id::text = $3)
		GROUP BY 1
		ORDER BY 1`

	var buckets []WeekBucket
	if err := r.db.SelectContext(ctx, &buckets, query, userID, since, exerciseID); err != nil {
		return nil, fmt.Errorf("weekly progress: %w", err)
	}
	return buckets, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM workout_logs`); err != nil {
		return 0, fmt.Errorf("count workout logs: %w", err)
	}
	return n, nil
}
