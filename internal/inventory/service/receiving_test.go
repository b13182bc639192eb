package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

func newReceivingService(db *database.DB) *service.ReceivingService {
	return service.NewReceivingService(
		db,
		repository.NewItemRepository(),
		repository.NewBatchRepository(),
		repository.NewStockEntryRepository(),
		repository.NewTxnRepository(),
		service.NewConversionResolver(repository.NewConversionRepository()),
		nil,
		testLogger(),
	)
}

func TestReceivingService_Receive_MergesIntoExistingBatch(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
		WithArgs("item-1").
		WillReturnRows(itemRow("item-1", "Tomatoes", strPtr("KG")))
	mock.ExpectQuery("SELECT * FROM batches WHERE item_id = $1 AND received_at = $2 FOR UPDATE").
		WithArgs("item-1", receivedDate).
		WillReturnRows(batchRow("batch-1", "item-1", 40, "KG", receivedDate))
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", 25.0, "system").
		WillReturnRows(batchRow("batch-1", "item-1", 65, "KG", receivedDate))
	mock.ExpectQuery("INSERT INTO stock_entries").
		WillReturnRows(auditRows())
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WillReturnRows(createdAtRow())
	mock.ExpectCommit()

	svc := newReceivingService(db)

	entry, err := svc.Receive(context.Background(), &service.StockReceipt{
		ItemID:       "item-1",
		ReceivedDate: receivedDate,
		Quantity:     25,
		Unit:         "KG",
		PricePerUnit: decimal.NewFromInt(2),
		TotalCost:    decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, "batch-1", entry.BatchID)
	assert.Equal(t, 25.0, entry.Quantity)

	mock.ExpectationsWereMet(t)
}

func TestReceivingService_Receive_NewBatchUsesDefaultUnitAndConverts(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
		WithArgs("item-1").
		WillReturnRows(itemRow("item-1", "Tomatoes", strPtr("KG")))
	mock.ExpectQuery("SELECT * FROM batches WHERE item_id = $1 AND received_at = $2 FOR UPDATE").
		WithArgs("item-1", receivedDate).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO batches").
		WillReturnRows(auditRows())
	mock.ExpectQuery("INSERT INTO stock_entries").
		WillReturnRows(auditRows())
	mock.ExpectQuery("SELECT * FROM item_conversions").
		WithArgs("item-1", "CRATE", "KG").
		WillReturnRows(conversionRow("conv-1", "item-1", "CRATE", "KG", 10))
	// The ledger row carries the receipt as entered and normalized to the
	// batch unit: 5 CRATE at factor 10 is 50 KG.
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WithArgs(
			sqlmock.AnyArg(), "item-1", sqlmock.AnyArg(), repository.TxnTypeIn,
			5.0, "CRATE", 50.0, "KG",
			repository.RefTypeStockEntry, sqlmock.AnyArg(), nil,
		).
		WillReturnRows(createdAtRow())
	mock.ExpectCommit()

	svc := newReceivingService(db)

	entry, err := svc.Receive(context.Background(), &service.StockReceipt{
		ItemID:       "item-1",
		ReceivedDate: receivedDate,
		Quantity:     5,
		Unit:         "CRATE",
		PricePerUnit: decimal.NewFromInt(20),
		TotalCost:    decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, "CRATE", entry.Unit)
	assert.NotEmpty(t, entry.BatchID)

	mock.ExpectationsWereMet(t)
}

func TestReceivingService_Receive_ConversionMissingAborts(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
		WithArgs("item-1").
		WillReturnRows(itemRow("item-1", "Tomatoes", strPtr("KG")))
	mock.ExpectQuery("SELECT * FROM batches WHERE item_id = $1 AND received_at = $2 FOR UPDATE").
		WithArgs("item-1", receivedDate).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO batches").
		WillReturnRows(auditRows())
	mock.ExpectQuery("INSERT INTO stock_entries").
		WillReturnRows(auditRows())
	mock.ExpectQuery("SELECT * FROM item_conversions").
		WithArgs("item-1", "BOX", "KG").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT * FROM item_conversions").
		WithArgs("item-1", "KG", "BOX").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	svc := newReceivingService(db)

	_, err := svc.Receive(context.Background(), &service.StockReceipt{
		ItemID:       "item-1",
		ReceivedDate: receivedDate,
		Quantity:     3,
		Unit:         "BOX",
		PricePerUnit: decimal.NewFromInt(10),
		TotalCost:    decimal.NewFromInt(30),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConversionUnavailable))

	mock.ExpectationsWereMet(t)
}

func TestReceivingService_UpdateEntry_ShrinkWritesOutRow(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	newQty := 30.0

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM stock_entries WHERE id = $1").
		WithArgs("entry-1").
		WillReturnRows(stockEntryRow("entry-1", "batch-1", "item-1", receivedDate, 50, "KG"))
	mock.ExpectExec("UPDATE stock_entries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", -20.0, "system").
		WillReturnRows(batchRow("batch-1", "item-1", 80, "KG", receivedDate))
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WithArgs(
			sqlmock.AnyArg(), "item-1", "batch-1", repository.TxnTypeOut,
			20.0, "KG", 20.0, "KG",
			repository.RefTypeStockEntry, "entry-1", sqlmock.AnyArg(),
		).
		WillReturnRows(createdAtRow())
	mock.ExpectCommit()

	svc := newReceivingService(db)

	entry, err := svc.UpdateEntry(context.Background(), "entry-1", &service.StockEntryUpdate{
		Quantity: &newQty,
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, entry.Quantity)

	mock.ExpectationsWereMet(t)
}

func TestReceivingService_UpdateEntry_NoQuantityChangeWritesNoTxn(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM stock_entries WHERE id = $1").
		WithArgs("entry-1").
		WillReturnRows(stockEntryRow("entry-1", "batch-1", "item-1", receivedDate, 50, "KG"))
	mock.ExpectExec("UPDATE stock_entries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := newReceivingService(db)

	_, err := svc.UpdateEntry(context.Background(), "entry-1", &service.StockEntryUpdate{
		Source: strPtr("Greenfield Farm"),
	})
	require.NoError(t, err)

	mock.ExpectationsWereMet(t)
}

func TestReceivingService_DeleteEntry_InsufficientStock(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM stock_entries WHERE id = $1").
		WithArgs("entry-1").
		WillReturnRows(stockEntryRow("entry-1", "batch-1", "item-1", receivedDate, 50, "KG"))
	// The batch only holds 20 of the 50 this entry contributed; taking the
	// receipt back out would drive the quantity negative.
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", -50.0, "system").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1").
		WithArgs("batch-1").
		WillReturnRows(batchRow("batch-1", "item-1", 20, "KG", receivedDate))
	mock.ExpectRollback()

	svc := newReceivingService(db)

	err := svc.DeleteEntry(context.Background(), "entry-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	mock.ExpectationsWereMet(t)
}

func TestReceivingService_DeleteEntry_RestoresAndLogs(t *testing.T) {
	mock, db := newMockEnv(t)
	defer mock.Close()

	receivedDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT * FROM stock_entries WHERE id = $1").
		WithArgs("entry-1").
		WillReturnRows(stockEntryRow("entry-1", "batch-1", "item-1", receivedDate, 50, "KG"))
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", -50.0, "system").
		WillReturnRows(batchRow("batch-1", "item-1", 10, "KG", receivedDate))
	mock.ExpectQuery("INSERT INTO inventory_txns").
		WithArgs(
			sqlmock.AnyArg(), "item-1", "batch-1", repository.TxnTypeOut,
			50.0, "KG", 50.0, "KG",
			repository.RefTypeStockEntry, "entry-1", sqlmock.AnyArg(),
		).
		WillReturnRows(createdAtRow())
	mock.ExpectExec("DELETE FROM stock_entries").
		WithArgs("entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := newReceivingService(db)

	err := svc.DeleteEntry(context.Background(), "entry-1")
	require.NoError(t, err)

	mock.ExpectationsWereMet(t)
}
