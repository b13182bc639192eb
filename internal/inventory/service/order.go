package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/actor"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// OrderService handles mart orders. Dispatch-driven progress lives in
// DispatchService; this service covers the manual lifecycle.
type OrderService struct {
	db     *database.DB
	orders *repository.OrderRepository
	logger *logger.Logger
}

// NewOrderService creates a new order service
func NewOrderService(db *database.DB, orders *repository.OrderRepository, log *logger.Logger) *OrderService {
	return &OrderService{
		db:     db,
		orders: orders,
		logger: log.WithComponent("order-service"),
	}
}

// OrderInput is the input for creating an order.
type OrderInput struct {
	ItemID          string
	MartName        string
	OrderDate       time.Time
	QuantityOrdered float64
	Unit            string
}

// OrderUpdate carries the editable fields of an order. Nil means "leave
// unchanged". Status is never set directly; it is recomputed from the
// ordered and dispatched quantities after every edit.
type OrderUpdate struct {
	MartName           *string
	OrderDate          *time.Time
	QuantityOrdered    *float64
	QuantityDispatched *float64
	Unit               *string
}

// Create creates a new order. A second order for the same item, mart and
// date is a Conflict.
func (s *OrderService) Create(ctx context.Context, in *OrderInput) (*repository.Order, error) {
	user := actor.FromContext(ctx)

	order := &repository.Order{
		ItemID:          in.ItemID,
		MartName:        in.MartName,
		OrderDate:       in.OrderDate,
		QuantityOrdered: in.QuantityOrdered,
		Unit:            in.Unit,
		CreatedBy:       user,
		UpdatedBy:       user,
	}
	if err := s.orders.Create(ctx, s.db, order); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("item_id", order.ItemID).
		Str("mart_name", order.MartName).
		Msg("order created")

	return order, nil
}

// Get returns an order by ID
func (s *OrderService) Get(ctx context.Context, id string) (*repository.Order, error) {
	return s.orders.GetByID(ctx, s.db, id)
}

// List lists orders with optional date and mart filters
func (s *OrderService) List(ctx context.Context, orderDate *time.Time, martName string) ([]*repository.Order, error) {
	return s.orders.List(ctx, s.db, orderDate, martName)
}

// ListMartNames lists the distinct mart names seen across orders
func (s *OrderService) ListMartNames(ctx context.Context) ([]string, error) {
	return s.orders.ListMartNames(ctx, s.db)
}

// Update applies a manual edit. Whatever fields change, the status is
// recomputed from the resulting quantities, so an order edited below its
// dispatched amount flips to Completed and one edited above it reopens.
func (s *OrderService) Update(ctx context.Context, id string, upd *OrderUpdate) (*repository.Order, error) {
	user := actor.FromContext(ctx)

	var order *repository.Order
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		order, err = s.orders.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if upd.MartName != nil {
			order.MartName = *upd.MartName
		}
		if upd.OrderDate != nil {
			order.OrderDate = *upd.OrderDate
		}
		if upd.QuantityOrdered != nil {
			order.QuantityOrdered = *upd.QuantityOrdered
		}
		if upd.QuantityDispatched != nil {
			order.QuantityDispatched = *upd.QuantityDispatched
		}
		if upd.Unit != nil {
			order.Unit = *upd.Unit
		}
		order.Status = repository.StatusFor(order.QuantityOrdered, order.QuantityDispatched)
		order.UpdatedBy = user

		return s.orders.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Delete deletes an order
func (s *OrderService) Delete(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, s.db, id)
}
