package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// DispatchEntry is a sale record against a batch. At most one entry exists
// per (batch, mart, dispatch date); repeated dispatches for the same triple
// accumulate into the existing row.
type DispatchEntry struct {
	ID           string    `db:"id" json:"id"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	ItemID       string    `db:"item_id" json:"item_id"`
	MartName     string    `db:"mart_name" json:"mart_name"`
	DispatchDate time.Time `db:"dispatch_date" json:"dispatch_date"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	Unit         string    `db:"unit" json:"unit"`
	Remarks      *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	UpdatedBy    string    `db:"updated_by" json:"updated_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DispatchEntryRepository handles dispatch entry persistence
type DispatchEntryRepository struct{}

// NewDispatchEntryRepository creates a new dispatch entry repository
func NewDispatchEntryRepository() *DispatchEntryRepository {
	return &DispatchEntryRepository{}
}

// Create creates a new dispatch entry
func (r *DispatchEntryRepository) Create(ctx context.Context, q database.Queryer, entry *DispatchEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO dispatch_entries (
			id, batch_id, item_id, mart_name, dispatch_date, quantity, unit, remarks,
			created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		entry.ID, entry.BatchID, entry.ItemID, entry.MartName, entry.DispatchDate,
		entry.Quantity, entry.Unit, entry.Remarks, entry.CreatedBy, entry.UpdatedBy,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a dispatch entry by ID
func (r *DispatchEntryRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*DispatchEntry, error) {
	var entry DispatchEntry
	query := `SELECT * FROM dispatch_entries WHERE id = $1`
	if err := q.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("dispatch entry")
		}
		return nil, err
	}
	return &entry, nil
}

// ExistsForItemMartDate reports whether any dispatch entry exists for the
// item/mart/date triple. The single-dispatch path uses this coarser guard.
func (r *DispatchEntryRepository) ExistsForItemMartDate(ctx context.Context, q database.Queryer, itemID, martName string, dispatchDate time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM dispatch_entries
			WHERE item_id = $1 AND mart_name = $2 AND dispatch_date = $3
		)
	`
	if err := q.GetContext(ctx, &exists, query, itemID, martName, dispatchDate); err != nil {
		return false, err
	}
	return exists, nil
}

// FindByBatchMartDateForUpdate finds the entry for an exact (batch, mart,
// date) triple, locking it so accumulation from an order dispatch is serial.
func (r *DispatchEntryRepository) FindByBatchMartDateForUpdate(ctx context.Context, q database.Queryer, batchID, martName string, dispatchDate time.Time) (*DispatchEntry, error) {
	var entry DispatchEntry
	query := `
		SELECT * FROM dispatch_entries
		WHERE batch_id = $1 AND mart_name = $2 AND dispatch_date = $3
		FOR UPDATE
	`
	if err := q.GetContext(ctx, &entry, query, batchID, martName, dispatchDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("dispatch entry")
		}
		return nil, err
	}
	return &entry, nil
}

// List lists dispatch entries with optional date and mart filters, newest first
func (r *DispatchEntryRepository) List(ctx context.Context, q database.Queryer, dispatchDate *time.Time, martName string, offset, limit int) ([]*DispatchEntry, error) {
	query := `SELECT * FROM dispatch_entries WHERE 1=1`
	args := []interface{}{}

	if dispatchDate != nil {
		args = append(args, *dispatchDate)
		query += ` AND dispatch_date = $1`
	}
	if martName != "" {
		args = append(args, martName)
		if len(args) == 1 {
			query += ` AND mart_name = $1`
		} else {
			query += ` AND mart_name = $2`
		}
	}

	switch len(args) {
	case 0:
		query += ` ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	case 1:
		query += ` ORDER BY created_at DESC OFFSET $2 LIMIT $3`
	default:
		query += ` ORDER BY created_at DESC OFFSET $3 LIMIT $4`
	}
	args = append(args, offset, limit)

	var entries []*DispatchEntry
	if err := q.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// Update updates a dispatch entry
func (r *DispatchEntryRepository) Update(ctx context.Context, q database.Queryer, entry *DispatchEntry) error {
	query := `
		UPDATE dispatch_entries SET
			mart_name = $2, dispatch_date = $3, quantity = $4, unit = $5, remarks = $6,
			updated_by = $7, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query,
		entry.ID, entry.MartName, entry.DispatchDate, entry.Quantity, entry.Unit,
		entry.Remarks, entry.UpdatedBy,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("dispatch entry")
	}

	return nil
}

// Delete deletes a dispatch entry
func (r *DispatchEntryRepository) Delete(ctx context.Context, q database.Queryer, id string) error {
	query := `DELETE FROM dispatch_entries WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("dispatch entry")
	}

	return nil
}
