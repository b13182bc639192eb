package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
	"github.com/freshtrack/freshtrack-backend/pkg/testutil"
)

func batchColumns() []string {
	return []string{
		"id", "item_id", "quantity", "unit", "expiry_date", "received_at", "remarks",
		"created_by", "updated_by", "created_at", "updated_at",
	}
}

func TestBatchRepository_ApplyDelta_Decrements(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()

	receivedAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", -40.0, "alice").
		WillReturnRows(sqlmock.NewRows(batchColumns()).
			AddRow("batch-1", "item-1", 60.0, "KG", nil, receivedAt, nil, "alice", "alice", now, now))

	repo := repository.NewBatchRepository()

	batch, err := repo.ApplyDelta(context.Background(), mock.DB, "batch-1", -40, "alice")
	require.NoError(t, err)
	assert.Equal(t, 60.0, batch.Quantity)

	mock.ExpectationsWereMet(t)
}

func TestBatchRepository_ApplyDelta_GuardRefusesNegative(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()

	receivedAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	// The conditional update matches no row; the follow-up read shows the
	// batch exists but holds less than requested.
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", -40.0, "alice").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows(batchColumns()).
			AddRow("batch-1", "item-1", 10.0, "KG", nil, receivedAt, nil, "alice", "alice", now, now))

	repo := repository.NewBatchRepository()

	_, err := repo.ApplyDelta(context.Background(), mock.DB, "batch-1", -40, "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	mock.ExpectationsWereMet(t)
}

func TestBatchRepository_ApplyDelta_MissingBatch(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE batches").
		WithArgs("nope", -40.0, "alice").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT * FROM batches WHERE id = $1").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	repo := repository.NewBatchRepository()

	_, err := repo.ApplyDelta(context.Background(), mock.DB, "nope", -40, "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mock.ExpectationsWereMet(t)
}
