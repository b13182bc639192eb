package service_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
	"github.com/freshtrack/freshtrack-backend/pkg/testutil"
)

func newMockEnv(t *testing.T) (*testutil.MockDB, *database.DB) {
	mock := testutil.NewMockDB(t)
	return mock, database.Wrap(mock.DB, testLogger())
}

func testLogger() *logger.Logger {
	return logger.New("inventory-service-test", "test")
}

func strPtr(s string) *string {
	return &s
}

func batchRow(id, itemID string, quantity float64, unit string, receivedAt time.Time) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "item_id", "quantity", "unit", "expiry_date", "received_at", "remarks",
		"created_by", "updated_by", "created_at", "updated_at",
	).AddRow(id, itemID, quantity, unit, nil, receivedAt, nil, "system", "system", now, now)
}

func itemRow(id, name string, defaultUnit *string) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "name", "item_code", "default_unit",
		"created_by", "updated_by", "created_at", "updated_at",
	).AddRow(id, name, nil, defaultUnit, "system", "system", now, now)
}

func orderRow(id, itemID, martName string, orderDate time.Time, ordered, dispatched float64, status, unit string) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "item_id", "mart_name", "order_date", "quantity_ordered", "quantity_dispatched",
		"status", "unit", "created_by", "updated_by", "created_at", "updated_at",
	).AddRow(id, itemID, martName, orderDate, ordered, dispatched, status, unit, "system", "system", now, now)
}

func conversionRow(id, itemID, sourceUnit, targetUnit string, factor float64) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "item_id", "source_unit", "target_unit", "factor",
		"created_by", "updated_by", "created_at", "updated_at",
	).AddRow(id, itemID, sourceUnit, targetUnit, factor, "system", "system", now, now)
}

func stockEntryRow(id, batchID, itemID string, receivedDate time.Time, quantity float64, unit string) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "batch_id", "item_id", "received_date", "source", "price_per_unit", "total_cost",
		"quantity", "unit", "created_by", "updated_by", "created_at", "updated_at",
	).AddRow(id, batchID, itemID, receivedDate, nil, "2.50", "125.00", quantity, unit, "system", "system", now, now)
}

func dispatchEntryRow(id, batchID, itemID, martName string, dispatchDate time.Time, quantity float64, unit string) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "batch_id", "item_id", "mart_name", "dispatch_date", "quantity", "unit", "remarks",
		"created_by", "updated_by", "created_at", "updated_at",
	).AddRow(id, batchID, itemID, martName, dispatchDate, quantity, unit, nil, "system", "system", now, now)
}

func auditRows() *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows("created_at", "updated_at").AddRow(now, now)
}

func createdAtRow() *sqlmock.Rows {
	return testutil.MockRows("created_at").AddRow(time.Now())
}
