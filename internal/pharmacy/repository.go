package pharmacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voiceagent-platform/pkg/utils"
)

var ErrNotFound = errors.New("pharmacy: not found")

// OrderRepository persists confirmed orders.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id string) (Order, error)
}

const insertOrderSQL = `
INSERT INTO pharmacy_orders (id, phone_number, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
`

const insertOrderItemSQL = `
INSERT INTO pharmacy_order_items (order_id, name, quantity)
VALUES ($1, $2, $3)
`

const selectOrderSQL = `
SELECT id, phone_number, status, created_at, updated_at
FROM pharmacy_orders
WHERE id = $1
`

const selectOrderItemsSQL = `
SELECT order_id, name, quantity
FROM pharmacy_order_items
WHERE order_id = $1
ORDER BY name
`

type PostgresOrderRepo struct {
	db *sql.DB
}

func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

// CreateOrder writes the order and its items in one transaction so a
// half-written order can never be read back.
func (r *PostgresOrderRepo) CreateOrder(ctx context.Context, o Order) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertOrderSQL,
			o.ID, o.PhoneNumber, o.Status, o.CreatedAt, o.UpdatedAt,
		); err != nil {
			return fmt.Errorf("pharmacy: insert order: %w", err)
		}
		for _, it := range o.Items {
			if _, err := tx.ExecContext(ctx, insertOrderItemSQL,
				o.ID, it.Name, it.Quantity,
			); err != nil {
				return fmt.Errorf("pharmacy: insert order item: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresOrderRepo) GetOrder(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, selectOrderSQL, id).Scan(
		&o.ID, &o.PhoneNumber, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("pharmacy: select order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectOrderItemsSQL, id)
	if err != nil {
		return Order{}, fmt.Errorf("pharmacy: select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.OrderID, &it.Name, &it.Quantity); err != nil {
			return Order{}, fmt.Errorf("pharmacy: scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, err
	}
	return o, nil
}
