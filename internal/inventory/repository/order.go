package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// Order statuses. Completed is recomputed, not sticky: a negative dispatch
// adjustment can move a Completed order back to Partially Completed.
const (
	OrderStatusPending            = "Pending"
	OrderStatusPartiallyCompleted = "Partially Completed"
	OrderStatusCompleted          = "Completed"
)

// Order is a mart's requested quantity of an item for a date. At most one
// order exists per (item, mart, order date).
type Order struct {
	ID                 string    `db:"id" json:"id"`
	ItemID             string    `db:"item_id" json:"item_id"`
	MartName           string    `db:"mart_name" json:"mart_name"`
	OrderDate          time.Time `db:"order_date" json:"order_date"`
	QuantityOrdered    float64   `db:"quantity_ordered" json:"quantity_ordered"`
	QuantityDispatched float64   `db:"quantity_dispatched" json:"quantity_dispatched"`
	Status             string    `db:"status" json:"status"`
	Unit               string    `db:"unit" json:"unit"`
	CreatedBy          string    `db:"created_by" json:"created_by"`
	UpdatedBy          string    `db:"updated_by" json:"updated_by"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// StatusFor returns the order status implied by the ordered and dispatched
// quantities. Completed iff dispatched >= ordered; Pending iff nothing has
// been dispatched.
func StatusFor(ordered, dispatched float64) string {
	switch {
	case dispatched >= ordered:
		return OrderStatusCompleted
	case dispatched > 0:
		return OrderStatusPartiallyCompleted
	default:
		return OrderStatusPending
	}
}

// Advance applies a signed dispatched-quantity delta and recomputes the
// status from scratch. The recompute is unconditional, so a Completed order
// reverts when a dispatch against it is shrunk or deleted.
func (o *Order) Advance(delta float64) {
	o.QuantityDispatched += delta
	o.Status = StatusFor(o.QuantityOrdered, o.QuantityDispatched)
}

// OrderRepository handles order persistence
type OrderRepository struct{}

// NewOrderRepository creates a new order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// Create creates a new order. The unique index on (item, mart, order date)
// turns duplicates into a Conflict.
func (r *OrderRepository) Create(ctx context.Context, q database.Queryer, order *Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = StatusFor(order.QuantityOrdered, order.QuantityDispatched)
	}

	query := `
		INSERT INTO orders (
			id, item_id, mart_name, order_date, quantity_ordered, quantity_dispatched,
			status, unit, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		order.ID, order.ItemID, order.MartName, order.OrderDate,
		order.QuantityOrdered, order.QuantityDispatched, order.Status, order.Unit,
		order.CreatedBy, order.UpdatedBy,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*Order, error) {
	var order Order
	query := `SELECT * FROM orders WHERE id = $1`
	if err := q.GetContext(ctx, &order, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("order")
		}
		return nil, err
	}
	return &order, nil
}

// FindOpenForUpdate finds the open (not Completed) order for an item and
// mart, locking the row so concurrent dispatches advance it serially.
func (r *OrderRepository) FindOpenForUpdate(ctx context.Context, q database.Queryer, itemID, martName string) (*Order, error) {
	var order Order
	query := `
		SELECT * FROM orders
		WHERE item_id = $1 AND mart_name = $2 AND status != $3
		ORDER BY order_date
		LIMIT 1
		FOR UPDATE
	`
	if err := q.GetContext(ctx, &order, query, itemID, martName, OrderStatusCompleted); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("open order")
		}
		return nil, err
	}
	return &order, nil
}

// FindLatestForUpdate finds the most recent order for an item and mart in any
// status, locking the row. Reversals use this so shrinking or deleting a
// dispatch can pull a Completed order back.
func (r *OrderRepository) FindLatestForUpdate(ctx context.Context, q database.Queryer, itemID, martName string) (*Order, error) {
	var order Order
	query := `
		SELECT * FROM orders
		WHERE item_id = $1 AND mart_name = $2
		ORDER BY order_date DESC
		LIMIT 1
		FOR UPDATE
	`
	if err := q.GetContext(ctx, &order, query, itemID, martName); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("order")
		}
		return nil, err
	}
	return &order, nil
}

// List lists orders with optional date and mart filters, newest first
func (r *OrderRepository) List(ctx context.Context, q database.Queryer, orderDate *time.Time, martName string) ([]*Order, error) {
	query := `SELECT * FROM orders WHERE 1=1`
	args := []interface{}{}

	if orderDate != nil {
		args = append(args, *orderDate)
		query += ` AND order_date = $1`
	}
	if martName != "" {
		args = append(args, martName)
		if len(args) == 1 {
			query += ` AND mart_name = $1`
		} else {
			query += ` AND mart_name = $2`
		}
	}
	query += ` ORDER BY created_at DESC`

	var orders []*Order
	if err := q.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListMartNames lists the distinct mart names seen across orders
func (r *OrderRepository) ListMartNames(ctx context.Context, q database.Queryer) ([]string, error) {
	var names []string
	query := `SELECT DISTINCT mart_name FROM orders ORDER BY mart_name`
	if err := q.SelectContext(ctx, &names, query); err != nil {
		return nil, err
	}
	return names, nil
}

// UpdateProgress persists the dispatched quantity and status after an
// Advance. The full-row Update is reserved for manual edits.
func (r *OrderRepository) UpdateProgress(ctx context.Context, q database.Queryer, order *Order) error {
	query := `
		UPDATE orders SET
			quantity_dispatched = $2, status = $3, updated_by = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query,
		order.ID, order.QuantityDispatched, order.Status, order.UpdatedBy,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("order")
	}

	return nil
}

// Update updates an order after a manual edit
func (r *OrderRepository) Update(ctx context.Context, q database.Queryer, order *Order) error {
	query := `
		UPDATE orders SET
			mart_name = $2, order_date = $3, quantity_ordered = $4, quantity_dispatched = $5,
			status = $6, unit = $7, updated_by = $8, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query,
		order.ID, order.MartName, order.OrderDate, order.QuantityOrdered,
		order.QuantityDispatched, order.Status, order.Unit, order.UpdatedBy,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("order")
	}

	return nil
}

// Delete deletes an order
func (r *OrderRepository) Delete(ctx context.Context, q database.Queryer, id string) error {
	query := `DELETE FROM orders WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("order")
	}

	return nil
}
