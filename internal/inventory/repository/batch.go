package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// Batch is a homogeneous lot of one item received together, tracked as a
// single mutable stock pool. All receipts for the same (item, received date)
// merge into one row; dispatches and rejections decrement it. The quantity
// column carries a CHECK (quantity >= 0) constraint as a last line of
// defense behind ApplyDelta's guard.
type Batch struct {
	ID         string     `db:"id" json:"id"`
	ItemID     string     `db:"item_id" json:"item_id"`
	Quantity   float64    `db:"quantity" json:"quantity"`
	Unit       string     `db:"unit" json:"unit"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	ReceivedAt time.Time  `db:"received_at" json:"received_at"`
	Remarks    *string    `db:"remarks" json:"remarks,omitempty"`
	CreatedBy  string     `db:"created_by" json:"created_by"`
	UpdatedBy  string     `db:"updated_by" json:"updated_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// BatchRepository handles batch persistence. It is the only component
// allowed to touch batch quantities; services go through ApplyDelta so the
// non-negativity invariant is enforced in exactly one place.
type BatchRepository struct{}

// NewBatchRepository creates a new batch repository
func NewBatchRepository() *BatchRepository {
	return &BatchRepository{}
}

// Create creates a new batch
func (r *BatchRepository) Create(ctx context.Context, q database.Queryer, batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}

	query := `
		INSERT INTO batches (id, item_id, quantity, unit, expiry_date, received_at, remarks, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		batch.ID, batch.ItemID, batch.Quantity, batch.Unit, batch.ExpiryDate,
		batch.ReceivedAt, batch.Remarks, batch.CreatedBy, batch.UpdatedBy,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE id = $1`
	if err := q.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// GetByIDForUpdate gets a batch by ID and takes a row lock for the duration
// of the surrounding transaction. Callers that check quantity before
// decrementing must hold this lock so two concurrent dispatches cannot both
// pass the check.
func (r *BatchRepository) GetByIDForUpdate(ctx context.Context, q database.Queryer, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE id = $1 FOR UPDATE`
	if err := q.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// FindByItemAndDateForUpdate finds the batch for an exact (item, received
// date) pair, locking it. This is the merge key for stock receipts.
func (r *BatchRepository) FindByItemAndDateForUpdate(ctx context.Context, q database.Queryer, itemID string, receivedAt time.Time) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE item_id = $1 AND received_at = $2 FOR UPDATE`
	if err := q.GetContext(ctx, &batch, query, itemID, receivedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// ApplyDelta applies a signed quantity delta atomically. The WHERE guard
// refuses any delta that would take the quantity negative, so the
// check-and-decrement cannot race even without a prior row lock.
func (r *BatchRepository) ApplyDelta(ctx context.Context, q database.Queryer, id string, delta float64, updatedBy string) (*Batch, error) {
	var batch Batch
	query := `
		UPDATE batches
		SET quantity = quantity + $2, updated_by = $3, updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING *
	`

	err := q.GetContext(ctx, &batch, query, id, delta, updatedBy)
	if err == nil {
		return &batch, nil
	}
	if err != sql.ErrNoRows {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	// Guard failed: distinguish a missing batch from insufficient stock.
	existing, getErr := r.GetByID(ctx, q, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, errors.InsufficientStock(fmt.Sprintf(
		"not enough stock in batch %s: available %g, requested %g", id, existing.Quantity, -delta,
	))
}

// ListByItemInStock lists batches for an item that still have sellable
// stock, oldest first. Callers choose which batches to consume; FIFO is a
// convention, not enforced here.
func (r *BatchRepository) ListByItemInStock(ctx context.Context, q database.Queryer, itemID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE item_id = $1 AND quantity > 0
		ORDER BY created_at
	`
	if err := q.SelectContext(ctx, &batches, query, itemID); err != nil {
		return nil, err
	}
	return batches, nil
}

// List lists batches with pagination, newest first
func (r *BatchRepository) List(ctx context.Context, q database.Queryer, offset, limit int) ([]*Batch, error) {
	var batches []*Batch
	query := `SELECT * FROM batches ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	if err := q.SelectContext(ctx, &batches, query, offset, limit); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListExpiring lists batches with stock whose expiry date falls within the
// given number of days.
func (r *BatchRepository) ListExpiring(ctx context.Context, q database.Queryer, withinDays int) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE quantity > 0 AND expiry_date IS NOT NULL
		AND expiry_date <= NOW() + INTERVAL '1 day' * $1
		ORDER BY expiry_date
	`
	if err := q.SelectContext(ctx, &batches, query, withinDays); err != nil {
		return nil, err
	}
	return batches, nil
}

// Update updates the administrative fields of a batch. Quantity is
// deliberately excluded; it only moves through ApplyDelta.
func (r *BatchRepository) Update(ctx context.Context, q database.Queryer, batch *Batch) error {
	query := `
		UPDATE batches SET
			unit = $2, expiry_date = $3, received_at = $4, remarks = $5, updated_by = $6, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query,
		batch.ID, batch.Unit, batch.ExpiryDate, batch.ReceivedAt, batch.Remarks, batch.UpdatedBy,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}

// Delete hard-deletes a batch. Administrative only; the reconciliation flows
// never call this.
func (r *BatchRepository) Delete(ctx context.Context, q database.Queryer, id string) error {
	query := `DELETE FROM batches WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}
