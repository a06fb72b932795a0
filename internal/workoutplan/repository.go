// AngelaMos | 2026
// repository.go

package workoutplan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/coachforge/platform/internal/core"
)

type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context, params ListParams) ([]Plan, int, error)
	Update(ctx context.Context, plan *Plan, replaceExercises bool) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DB
}

func NewRepository(db core.DB) Repository {
	return &repository{db: db}
}

const planColumns = `id, trainer_id, client_id, title, description, status,
	start_date, end_date, created_at, updated_at`

func (r *repository) Create(ctx context.Context, plan *Plan) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO workout_plans (
				id, trainer_id, client_id, title, description, status,
				start_date, end_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at`

		err := tx.GetContext(ctx, plan, query,
			plan.ID,
			plan.TrainerID,
			plan.ClientID,
			plan.Title,
			plan.Description,
			plan.Status,
			plan.StartDate,
			plan.EndDate,
		)
		if err != nil {
			if core.IsForeignKeyError(err) {
				return fmt.Errorf("create plan: %w", core.ErrNotFound)
			}
			return fmt.Errorf("create plan: %w", err)
		}

		return insertExercises(ctx, tx, plan)
	})
}

func insertExercises(ctx context.Context, tx core.DBTX, plan *Plan) error {
	query := `
		INSERT INTO workout_plan_exercises (
			id, plan_id, exercise_id, position, sets, reps,
			rest_seconds, tempo, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, e := range plan.Exercises {
		_, err := tx.ExecContext(ctx, query,
			e.ID,
			plan.ID,
			e.ExerciseID,
			e.Position,
			e.Sets,
			e.Reps,
			e.RestSeconds,
			e.Tempo,
			e.Notes,
		)
		if err != nil {
			if core.IsForeignKeyError(err) {
				return core.ValidationError("unknown exercise " + e.ExerciseID)
			}
			return fmt.Errorf("insert plan exercise: %w", err)
		}
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM workout_plans WHERE id = $1`

	var plan Plan
	err := r.db.GetContext(ctx, &plan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	exQuery := `
		SELECT id, plan_id, exercise_id, position, sets, reps,
		       rest_seconds, tempo, notes
		FROM workout_plan_exercises
		WHERE plan_id = $1
		ORDER BY position ASC`

	if err := r.db.SelectContext(ctx, &plan.Exercises, exQuery, id); err != nil {
		return nil, fmt.Errorf("get plan exercises: %w", err)
	}

	return &plan, nil
}

// List returns plan headers without their exercise rows.
func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Plan, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.TrainerID != "" {
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", argIdx))
		args = append(args, params.TrainerID)
		argIdx++
	}

	if params.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argIdx))
		args = append(args, params.ClientID)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.HideDrafts {
		conditions = append(conditions, "status <> 'draft'")
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM workout_plans WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count plans: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+planColumns+`
		FROM workout_plans
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)
	args = append(args, params.PageSize, params.Offset())

	var plans []Plan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list plans: %w", err)
	}

	return plans, total, nil
}

func (r *repository) Update(
	ctx context.Context,
	plan *Plan,
	replaceExercises bool,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE workout_plans
			SET title = $2, description = $3, status = $4,
			    start_date = $5, end_date = $6, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`

		err := tx.GetContext(ctx, &plan.UpdatedAt, query,
			plan.ID,
			plan.Title,
			plan.Description,
			plan.Status,
			plan.StartDate,
			plan.EndDate,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update plan: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update plan: %w", err)
		}

		if !replaceExercises {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM workout_plan_exercises WHERE plan_id = $1`, plan.ID); err != nil {
			return fmt.Errorf("clear plan exercises: %w", err)
		}

		return insertExercises(ctx, tx, plan)
	})
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workout_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete plan: %w", core.ErrNotFound)
	}

	return nil
}
