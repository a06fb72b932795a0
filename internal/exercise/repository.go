// AngelaMos | 2026
// repository.go

package exercise

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/coachforge/platform/internal/core"
)

type Repository interface {
	Create(ctx context.Context, e *Exercise) error
	GetByID(ctx context.Context, id string) (*Exercise, error)
	Update(ctx context.Context, e *Exercise) error
	SoftDelete(ctx context.Context, id string) error
	Search(ctx context.Context, params SearchRequest) ([]Exercise, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const exerciseColumns = `id, name, description, instructions, muscle_group,
	equipment, difficulty, opt_phase, video_url, created_by,
	created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, e *Exercise) error {
	query := `
		INSERT INTO exercises (
			id, name, description, instructions, muscle_group,
			equipment, difficulty, opt_phase, video_url, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, e, query,
		e.ID,
		e.Name,
		e.Description,
		e.Instructions,
		e.MuscleGroup,
		e.Equipment,
		e.Difficulty,
		e.OPTPhase,
		e.VideoURL,
		e.CreatedBy,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create exercise: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create exercise: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Exercise, error) {
	query := `SELECT ` + exerciseColumns + `
		FROM exercises
		WHERE id = $1 AND deleted_at IS NULL`

	var e Exercise
	err := r.db.GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get exercise: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}

	return &e, nil
}

func (r *repository) Update(ctx context.Context, e *Exercise) error {
	query := `
		UPDATE exercises
		SET name = $2, description = $3, instructions = $4,
		    muscle_group = $5, equipment = $6, difficulty = $7,
		    opt_phase = $8, video_url = $9, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &e.UpdatedAt, query,
		e.ID,
		e.Name,
		e.Description,
		e.Instructions,
		e.MuscleGroup,
		e.Equipment,
		e.Difficulty,
		e.OPTPhase,
		e.VideoURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update exercise: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update exercise: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update exercise: %w", err)
	}

	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE exercises
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete exercise: %w", core.ErrNotFound)
	}

	return nil
}

// Search applies every non-empty filter conjunctively.
func (r *repository) Search(
	ctx context.Context,
	params SearchRequest,
) ([]Exercise, int, error) {
	params.Normalize()

	conditions := []string{"deleted_at IS NULL"}
	var args []any
	argIdx := 1

	if params.Query != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Query)+"%")
		argIdx++
	}

	if params.MuscleGroup != "" {
		conditions = append(conditions, fmt.Sprintf("lower(muscle_group) = lower($%d)", argIdx))
		args = append(args, params.MuscleGroup)
		argIdx++
	}

	if params.Equipment != "" {
		conditions = append(conditions, fmt.Sprintf("lower(equipment) = lower($%d)", argIdx))
		args = append(args, params.Equipment)
		argIdx++
	}

	if params.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argIdx))
		args = append(args, params.Difficulty)
		argIdx++
	}

	if params.OPTPhase > 0 {
		conditions = append(conditions, fmt.Sprintf("opt_phase = $%d", argIdx))
		args = append(args, params.OPTPhase)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM exercises WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exercises: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+exerciseColumns+`
		FROM exercises
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var items []Exercise
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search exercises: %w", err)
	}

	return items, total, nil
}
