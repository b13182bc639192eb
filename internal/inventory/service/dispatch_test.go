package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

func newDispatchService(db *database.DB) *service.DispatchService {
	return service.NewDispatchService(
		db,
		repository.NewBatchRepository(),
		repository.NewOrderRepository(),
		repository.NewDispatchEntryRepository(),
		repository.NewTxnRepository(),
		service.NewConversionResolver(repository.NewConversionRepository()),
		nil,
		testLogger(),
	)
}

func TestDispatchService_Dispatch_DecrementsBatchAndAdvancesOrder(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dispatchDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-1").
		WillReturnRows(batchRow("batch-1", "item-1", 100, "KG", receivedDate))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("item-1", "GreenMart", dispatchDate).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO dispatch_entries").
		WillReturnRows(auditRows())
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", -40.0, "system").
		WillReturnRows(batchRow("batch-1", "item-1", 60, "KG", receivedDate))
	mock.ExpectQuery("SELECT * FROM orders").
		WithArgs("item-1", "GreenMart", repository.OrderStatusCompleted).
		WillReturnRows(orderRow("order-1", "item-1", "GreenMart", dispatchDate, 100, 0, repository.OrderStatusPending, "KG"))
	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", 40.0, repository.OrderStatusPartiallyCompleted, "system").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WithArgs(
			sqlmock.AnyArg(), "item-1", "batch-1", repository.TxnTypeOut,
			40.0, "KG", 40.0, "KG",
			repository.RefTypeDispatchEntry, sqlmock.AnyArg(), nil,
		).
		WillReturnRows(createdAtRow())
	mock.ExpectCommit()

	svc := newDispatchService(db)

	entry, err := svc.Dispatch(context.Background(), &service.SingleDispatch{
		BatchID:      "batch-1",
		MartName:     "GreenMart",
		DispatchDate: dispatchDate,
		Quantity:     40,
		Unit:         "KG",
	})
	require.NoError(t, err)
	assert.Equal(t, "item-1", entry.ItemID)
	assert.Equal(t, 40.0, entry.Quantity)

	mock.ExpectationsWereMet(t)
}

func TestDispatchService_Dispatch_DuplicateTripleConflicts(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dispatchDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-1").
		WillReturnRows(batchRow("batch-1", "item-1", 100, "KG", receivedDate))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("item-1", "GreenMart", dispatchDate).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	svc := newDispatchService(db)

	_, err := svc.Dispatch(context.Background(), &service.SingleDispatch{
		BatchID:      "batch-1",
		MartName:     "GreenMart",
		DispatchDate: dispatchDate,
		Quantity:     10,
		Unit:         "KG",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	mock.ExpectationsWereMet(t)
}

func TestDispatchService_Dispatch_InsufficientStock(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-1").
		WillReturnRows(batchRow("batch-1", "item-1", 10, "KG", receivedDate))
	mock.ExpectRollback()

	svc := newDispatchService(db)

	_, err := svc.Dispatch(context.Background(), &service.SingleDispatch{
		BatchID:      "batch-1",
		MartName:     "GreenMart",
		DispatchDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Quantity:     40,
		Unit:         "KG",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	mock.ExpectationsWereMet(t)
}

func TestDispatchService_DispatchFromOrder_LedgerRowPerAllocation(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dispatchDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM orders").
		WithArgs("item-1", "GreenMart", repository.OrderStatusCompleted).
		WillReturnRows(orderRow("order-1", "item-1", "GreenMart", dispatchDate, 100, 0, repository.OrderStatusPending, "KG"))

	// First allocation: 40 from batch-1.
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-1").
		WillReturnRows(batchRow("batch-1", "item-1", 50, "KG", receivedDate))
	mock.ExpectQuery("SELECT * FROM dispatch_entries").
		WithArgs("batch-1", "GreenMart", dispatchDate).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO dispatch_entries").
		WillReturnRows(auditRows())
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", -40.0, "system").
		WillReturnRows(batchRow("batch-1", "item-1", 10, "KG", receivedDate))
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WithArgs(
			sqlmock.AnyArg(), "item-1", "batch-1", repository.TxnTypeOut,
			40.0, "KG", 40.0, "KG",
			repository.RefTypeDispatchEntry, sqlmock.AnyArg(), nil,
		).
		WillReturnRows(createdAtRow())

	// Second allocation: 30 from batch-2.
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-2").
		WillReturnRows(batchRow("batch-2", "item-1", 80, "KG", receivedDate))
	mock.ExpectQuery("SELECT * FROM dispatch_entries").
		WithArgs("batch-2", "GreenMart", dispatchDate).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO dispatch_entries").
		WillReturnRows(auditRows())
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-2", -30.0, "system").
		WillReturnRows(batchRow("batch-2", "item-1", 50, "KG", receivedDate))
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WithArgs(
			sqlmock.AnyArg(), "item-1", "batch-2", repository.TxnTypeOut,
			30.0, "KG", 30.0, "KG",
			repository.RefTypeDispatchEntry, sqlmock.AnyArg(), nil,
		).
		WillReturnRows(createdAtRow())

	// The order advances once, by the total of 70.
	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", 70.0, repository.OrderStatusPartiallyCompleted, "system").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := newDispatchService(db)

	entries, err := svc.DispatchFromOrder(context.Background(), &service.OrderDispatch{
		ItemID:       "item-1",
		MartName:     "GreenMart",
		DispatchDate: dispatchDate,
		Unit:         "KG",
		Allocations: []service.BatchAllocation{
			{BatchID: "batch-1", Quantity: 40},
			{BatchID: "batch-2", Quantity: 30},
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	mock.ExpectationsWereMet(t)
}

func TestDispatchService_DispatchFromOrder_AccumulatesExistingEntry(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dispatchDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM orders").
		WithArgs("item-1", "GreenMart", repository.OrderStatusCompleted).
		WillReturnRows(orderRow("order-1", "item-1", "GreenMart", dispatchDate, 100, 40, repository.OrderStatusPartiallyCompleted, "KG"))
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-1").
		WillReturnRows(batchRow("batch-1", "item-1", 50, "KG", receivedDate))
	mock.ExpectQuery("SELECT * FROM dispatch_entries").
		WithArgs("batch-1", "GreenMart", dispatchDate).
		WillReturnRows(dispatchEntryRow("entry-1", "batch-1", "item-1", "GreenMart", dispatchDate, 40, "KG"))
	mock.ExpectExec("UPDATE dispatch_entries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", -20.0, "system").
		WillReturnRows(batchRow("batch-1", "item-1", 30, "KG", receivedDate))
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WillReturnRows(createdAtRow())
	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", 60.0, repository.OrderStatusPartiallyCompleted, "system").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := newDispatchService(db)

	entries, err := svc.DispatchFromOrder(context.Background(), &service.OrderDispatch{
		ItemID:       "item-1",
		MartName:     "GreenMart",
		DispatchDate: dispatchDate,
		Unit:         "KG",
		Allocations: []service.BatchAllocation{
			{BatchID: "batch-1", Quantity: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "entry-1", entries[0].ID)
	assert.Equal(t, 60.0, entries[0].Quantity)

	mock.ExpectationsWereMet(t)
}

func TestDispatchService_DispatchFromOrder_NoOpenOrder(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM orders").
		WithArgs("item-1", "GreenMart", repository.OrderStatusCompleted).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	svc := newDispatchService(db)

	_, err := svc.DispatchFromOrder(context.Background(), &service.OrderDispatch{
		ItemID:       "item-1",
		MartName:     "GreenMart",
		DispatchDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Unit:         "KG",
		Allocations: []service.BatchAllocation{
			{BatchID: "batch-1", Quantity: 20},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mock.ExpectationsWereMet(t)
}

func TestDispatchService_DispatchFromOrder_WrongItemBatch(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dispatchDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM orders").
		WithArgs("item-1", "GreenMart", repository.OrderStatusCompleted).
		WillReturnRows(orderRow("order-1", "item-1", "GreenMart", dispatchDate, 100, 0, repository.OrderStatusPending, "KG"))
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-9").
		WillReturnRows(batchRow("batch-9", "item-2", 50, "KG", receivedDate))
	mock.ExpectRollback()

	svc := newDispatchService(db)

	_, err := svc.DispatchFromOrder(context.Background(), &service.OrderDispatch{
		ItemID:       "item-1",
		MartName:     "GreenMart",
		DispatchDate: dispatchDate,
		Unit:         "KG",
		Allocations: []service.BatchAllocation{
			{BatchID: "batch-9", Quantity: 10},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mock.ExpectationsWereMet(t)
}

func TestDispatchService_Update_ShrinkRestocksAndWritesInRow(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dispatchDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	newQty := 30.0

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM dispatch_entries WHERE id = $1").
		WithArgs("entry-1").
		WillReturnRows(dispatchEntryRow("entry-1", "batch-1", "item-1", "GreenMart", dispatchDate, 50, "KG"))
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-1").
		WillReturnRows(batchRow("batch-1", "item-1", 10, "KG", receivedDate))
	mock.ExpectExec("UPDATE dispatch_entries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// diff is -20: stock goes back into the batch.
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", 20.0, "system").
		WillReturnRows(batchRow("batch-1", "item-1", 30, "KG", receivedDate))
	mock.ExpectQuery("SELECT * FROM orders").
		WithArgs("item-1", "GreenMart", repository.OrderStatusCompleted).
		WillReturnRows(orderRow("order-1", "item-1", "GreenMart", dispatchDate, 100, 50, repository.OrderStatusPartiallyCompleted, "KG"))
	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", 30.0, repository.OrderStatusPartiallyCompleted, "system").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WithArgs(
			sqlmock.AnyArg(), "item-1", "batch-1", repository.TxnTypeIn,
			20.0, "KG", 20.0, "KG",
			repository.RefTypeDispatchEntry, "entry-1", sqlmock.AnyArg(),
		).
		WillReturnRows(createdAtRow())
	mock.ExpectCommit()

	svc := newDispatchService(db)

	entry, err := svc.Update(context.Background(), "entry-1", &service.DispatchUpdate{
		Quantity: &newQty,
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, entry.Quantity)

	mock.ExpectationsWereMet(t)
}

func TestDispatchService_Delete_RestocksAndRevertsCompletedOrder(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dispatchDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM dispatch_entries WHERE id = $1").
		WithArgs("entry-1").
		WillReturnRows(dispatchEntryRow("entry-1", "batch-1", "item-1", "GreenMart", dispatchDate, 30, "KG"))
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1 FOR UPDATE").
		WithArgs("batch-1").
		WillReturnRows(batchRow("batch-1", "item-1", 20, "KG", receivedDate))
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", 30.0, "system").
		WillReturnRows(batchRow("batch-1", "item-1", 50, "KG", receivedDate))
	// No open order; the latest (Completed) order takes the reversal and
	// drops back to Partially Completed.
	mock.ExpectQuery("SELECT * FROM orders").
		WithArgs("item-1", "GreenMart", repository.OrderStatusCompleted).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT * FROM orders").
		WithArgs("item-1", "GreenMart").
		WillReturnRows(orderRow("order-1", "item-1", "GreenMart", dispatchDate, 100, 100, repository.OrderStatusCompleted, "KG"))
	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", 70.0, repository.OrderStatusPartiallyCompleted, "system").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WithArgs(
			sqlmock.AnyArg(), "item-1", "batch-1", repository.TxnTypeIn,
			30.0, "KG", 30.0, "KG",
			repository.RefTypeDispatchEntry, "entry-1", sqlmock.AnyArg(),
		).
		WillReturnRows(createdAtRow())
	mock.ExpectExec("DELETE FROM dispatch_entries").
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := newDispatchService(db)

	err := svc.Delete(context.Background(), "entry-1")
	require.NoError(t, err)

	mock.ExpectationsWereMet(t)
}
