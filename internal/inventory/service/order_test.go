package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
)

func TestOrderService_Update_RecomputesStatus(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	orderDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	newOrdered := 60.0

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM orders WHERE id = $1").
		WithArgs("order-1").
		WillReturnRows(orderRow("order-1", "item-1", "GreenMart", orderDate, 100, 70, repository.OrderStatusPartiallyCompleted, "KG"))
	// Shrinking the ordered quantity below what is already dispatched flips
	// the order to Completed.
	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", "GreenMart", orderDate, 60.0, 70.0, repository.OrderStatusCompleted, "KG", "system").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := service.NewOrderService(db, repository.NewOrderRepository(), testLogger())

	order, err := svc.Update(context.Background(), "order-1", &service.OrderUpdate{
		QuantityOrdered: &newOrdered,
	})
	require.NoError(t, err)
	assert.Equal(t, repository.OrderStatusCompleted, order.Status)

	mock.ExpectationsWereMet(t)
}

func TestOrderService_Update_RaisingOrderedReopens(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	orderDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	newOrdered := 150.0

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM orders WHERE id = $1").
		WithArgs("order-1").
		WillReturnRows(orderRow("order-1", "item-1", "GreenMart", orderDate, 100, 100, repository.OrderStatusCompleted, "KG"))
	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", "GreenMart", orderDate, 150.0, 100.0, repository.OrderStatusPartiallyCompleted, "KG", "system").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := service.NewOrderService(db, repository.NewOrderRepository(), testLogger())

	order, err := svc.Update(context.Background(), "order-1", &service.OrderUpdate{
		QuantityOrdered: &newOrdered,
	})
	require.NoError(t, err)
	assert.Equal(t, repository.OrderStatusPartiallyCompleted, order.Status)

	mock.ExpectationsWereMet(t)
}
