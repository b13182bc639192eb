package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// StockEntry is a receipt record. Exactly one batch mutation corresponds to
// each stock entry: the create added its quantity, and edits/deletes re-apply
// the difference.
type StockEntry struct {
	ID           string          `db:"id" json:"id"`
	BatchID      string          `db:"batch_id" json:"batch_id"`
	ItemID       string          `db:"item_id" json:"item_id"`
	ReceivedDate time.Time       `db:"received_date" json:"received_date"`
	Source       *string         `db:"source" json:"source,omitempty"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"price_per_unit"`
	TotalCost    decimal.Decimal `db:"total_cost" json:"total_cost"`
	Quantity     float64         `db:"quantity" json:"quantity"`
	Unit         string          `db:"unit" json:"unit"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	UpdatedBy    string          `db:"updated_by" json:"updated_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// StockEntryRepository handles stock entry persistence
type StockEntryRepository struct{}

// NewStockEntryRepository creates a new stock entry repository
func NewStockEntryRepository() *StockEntryRepository {
	return &StockEntryRepository{}
}

// Create creates a new stock entry
func (r *StockEntryRepository) Create(ctx context.Context, q database.Queryer, entry *StockEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_entries (
			id, batch_id, item_id, received_date, source, price_per_unit, total_cost,
			quantity, unit, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		entry.ID, entry.BatchID, entry.ItemID, entry.ReceivedDate, entry.Source,
		entry.PricePerUnit, entry.TotalCost, entry.Quantity, entry.Unit,
		entry.CreatedBy, entry.UpdatedBy,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a stock entry by ID
func (r *StockEntryRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*StockEntry, error) {
	var entry StockEntry
	query := `SELECT * FROM stock_entries WHERE id = $1`
	if err := q.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("stock entry")
		}
		return nil, err
	}
	return &entry, nil
}

// List lists stock entries with an optional received-date filter
func (r *StockEntryRepository) List(ctx context.Context, q database.Queryer, receivedDate *time.Time, offset, limit int) ([]*StockEntry, error) {
	var entries []*StockEntry

	if receivedDate != nil {
		query := `
			SELECT * FROM stock_entries
			WHERE received_date = $1
			ORDER BY created_at DESC OFFSET $2 LIMIT $3
		`
		if err := q.SelectContext(ctx, &entries, query, *receivedDate, offset, limit); err != nil {
			return nil, err
		}
		return entries, nil
	}

	query := `SELECT * FROM stock_entries ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	if err := q.SelectContext(ctx, &entries, query, offset, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

// Update updates a stock entry
func (r *StockEntryRepository) Update(ctx context.Context, q database.Queryer, entry *StockEntry) error {
	query := `
		UPDATE stock_entries SET
			received_date = $2, source = $3, price_per_unit = $4, total_cost = $5,
			quantity = $6, unit = $7, updated_by = $8, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query,
		entry.ID, entry.ReceivedDate, entry.Source, entry.PricePerUnit,
		entry.TotalCost, entry.Quantity, entry.Unit, entry.UpdatedBy,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("stock entry")
	}

	return nil
}

// Delete deletes a stock entry
func (r *StockEntryRepository) Delete(ctx context.Context, q database.Queryer, id string) error {
	query := `DELETE FROM stock_entries WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("stock entry")
	}

	return nil
}
