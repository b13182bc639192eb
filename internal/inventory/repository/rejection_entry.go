package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// RejectionEntry records spoilage or a return taken out of a batch. Item and
// unit are copied from the batch at creation time.
type RejectionEntry struct {
	ID            string    `db:"id" json:"id"`
	BatchID       string    `db:"batch_id" json:"batch_id"`
	ItemID        string    `db:"item_id" json:"item_id"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	Unit          string    `db:"unit" json:"unit"`
	Reason        *string   `db:"reason" json:"reason,omitempty"`
	RejectedBy    *string   `db:"rejected_by" json:"rejected_by,omitempty"`
	RejectionDate time.Time `db:"rejection_date" json:"rejection_date"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	UpdatedBy     string    `db:"updated_by" json:"updated_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// RejectionEntryRepository handles rejection entry persistence
type RejectionEntryRepository struct{}

// NewRejectionEntryRepository creates a new rejection entry repository
func NewRejectionEntryRepository() *RejectionEntryRepository {
	return &RejectionEntryRepository{}
}

// Create creates a new rejection entry
func (r *RejectionEntryRepository) Create(ctx context.Context, q database.Queryer, entry *RejectionEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO rejection_entries (
			id, batch_id, item_id, quantity, unit, reason, rejected_by, rejection_date,
			created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		entry.ID, entry.BatchID, entry.ItemID, entry.Quantity, entry.Unit,
		entry.Reason, entry.RejectedBy, entry.RejectionDate, entry.CreatedBy, entry.UpdatedBy,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a rejection entry by ID
func (r *RejectionEntryRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*RejectionEntry, error) {
	var entry RejectionEntry
	query := `SELECT * FROM rejection_entries WHERE id = $1`
	if err := q.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("rejection entry")
		}
		return nil, err
	}
	return &entry, nil
}

// List lists all rejection entries, newest rejection date first
func (r *RejectionEntryRepository) List(ctx context.Context, q database.Queryer) ([]*RejectionEntry, error) {
	var entries []*RejectionEntry
	query := `SELECT * FROM rejection_entries ORDER BY rejection_date DESC, created_at DESC`
	if err := q.SelectContext(ctx, &entries, query); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByDateAndItems lists rejections for a date, optionally restricted to
// specific items.
func (r *RejectionEntryRepository) ListByDateAndItems(ctx context.Context, q database.Queryer, rejectionDate time.Time, itemIDs []string) ([]*RejectionEntry, error) {
	var entries []*RejectionEntry

	if len(itemIDs) == 0 {
		query := `SELECT * FROM rejection_entries WHERE rejection_date = $1 ORDER BY created_at DESC`
		if err := q.SelectContext(ctx, &entries, query, rejectionDate); err != nil {
			return nil, err
		}
		return entries, nil
	}

	query := `
		SELECT * FROM rejection_entries
		WHERE rejection_date = $1 AND item_id = ANY($2)
		ORDER BY created_at DESC
	`
	if err := q.SelectContext(ctx, &entries, query, rejectionDate, pq.Array(itemIDs)); err != nil {
		return nil, err
	}
	return entries, nil
}
