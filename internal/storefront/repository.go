// AngelaMos | 2026
// repository.go

package storefront

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
	"github.com/coachforge/platform/internal/outbox"
)

const aggregateType = "order"

type Repository interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, params ListItemsParams) ([]Item, int, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, order *Order, event events.Envelope) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, userID string, limit, offset int) ([]Order, int, error)
	CountOrders(ctx context.Context) (int, error)
}

type repository struct {
	db     core.DB
	outbox *outbox.Store
}

func NewRepository(db core.DB, store *outbox.Store) Repository {
	return &repository{db: db, outbox: store}
}

const itemColumns = `id, name, description, price_cents, session_count,
	package_type, active, created_at, updated_at, deleted_at`

const orderColumns = `id, user_id, status, total_cents, currency,
	sessions_granted, created_at`

func (r *repository) CreateItem(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO storefront_items (
			id, name, description, price_cents, session_count, package_type, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, item, query,
		item.ID,
		item.Name,
		item.Description,
		item.PriceCents,
		item.SessionCount,
		item.PackageType,
		item.Active,
	)
	if err != nil {
		return fmt.Errorf("create storefront item: %w", err)
	}
	return nil
}

func (r *repository) GetItem(ctx context.Context, id string) (*Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM storefront_items
		WHERE id = $1 AND deleted_at IS NULL`

	var item Item
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get storefront item: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get storefront item: %w", err)
	}
	return &item, nil
}

func (r *repository) ListItems(
	ctx context.Context,
	params ListItemsParams,
) ([]Item, int, error) {
	where := `deleted_at IS NULL`
	if !params.IncludeInactive {
		where += ` AND active`
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM storefront_items WHERE `+where); err != nil {
		return nil, 0, fmt.Errorf("count storefront items: %w", err)
	}

	query := `SELECT ` + itemColumns + `
		FROM storefront_items
		WHERE ` + where + `
		ORDER BY price_cents, name
		LIMIT $1 OFFSET $2`

	var items []Item
	if err := r.db.SelectContext(ctx, &items, query, params.PageSize, params.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list storefront items: %w", err)
	}
	return items, total, nil
}

func (r *repository) UpdateItem(ctx context.Context, item *Item) error {
	query := `
		UPDATE storefront_items
		SET name = $2, description = $3, price_cents = $4, session_count = $5,
		    package_type = $6, active = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &item.UpdatedAt, query,
		item.ID,
		item.Name,
		item.Description,
		item.PriceCents,
		item.SessionCount,
		item.PackageType,
		item.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update storefront item: %w", core.ErrNotFound)
		}
		return fmt.Errorf("update storefront item: %w", err)
	}
	return nil
}

// DeleteItem soft deletes so past order items keep their reference.
func (r *repository) DeleteItem(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE storefront_items
		SET deleted_at = NOW(), active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete storefront item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete storefront item: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete storefront item: %w", core.ErrNotFound)
	}
	return nil
}

// CreateOrder records the order, credits the buyer's session balance and
// enqueues order.completed in one transaction.
func (r *repository) CreateOrder(
	ctx context.Context,
	order *Order,
	event events.Envelope,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &order.CreatedAt, `
			INSERT INTO orders (id, user_id, status, total_cents, currency, sessions_granted)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			order.ID,
			order.UserID,
			order.Status,
			order.TotalCents,
			order.Currency,
			order.SessionsGranted,
		)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, it := range order.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (
					id, order_id, item_id, name, quantity, unit_price_cents, session_count
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				it.ID,
				order.ID,
				it.ItemID,
				it.Name,
				it.Quantity,
				it.UnitPriceCents,
				it.SessionCount,
			)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO session_credits (user_id, balance)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE
			SET balance = session_credits.balance + EXCLUDED.balance,
			    updated_at = NOW()`,
			order.UserID,
			order.SessionsGranted,
		)
		if err != nil {
			return fmt.Errorf("grant session credits: %w", err)
		}

		return r.outbox.Enqueue(ctx, tx, aggregateType, event)
	})
}

func (r *repository) GetOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	err := r.db.GetContext(ctx, &order,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	err = r.db.SelectContext(ctx, &order.Items, `
		SELECT id, order_id, item_id, name, quantity, unit_price_cents, session_count
		FROM order_items
		WHERE order_id = $1
		ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return &order, nil
}

func (r *repository) ListOrders(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]Order, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var orders []Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (r *repository) CountOrders(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
