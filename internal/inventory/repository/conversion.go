package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// ConversionMapping maps (item, source unit, target unit) to a multiplicative
// factor. Mappings are directional; the resolver computes reciprocals on
// demand when only the reverse direction is stored.
type ConversionMapping struct {
	ID         string    `db:"id" json:"id"`
	ItemID     string    `db:"item_id" json:"item_id"`
	SourceUnit string    `db:"source_unit" json:"source_unit"`
	TargetUnit string    `db:"target_unit" json:"target_unit"`
	Factor     float64   `db:"factor" json:"factor"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	UpdatedBy  string    `db:"updated_by" json:"updated_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ConversionRepository handles conversion mapping persistence
type ConversionRepository struct{}

// NewConversionRepository creates a new conversion repository
func NewConversionRepository() *ConversionRepository {
	return &ConversionRepository{}
}

// Create creates a new conversion mapping
func (r *ConversionRepository) Create(ctx context.Context, q database.Queryer, conv *ConversionMapping) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	query := `
		INSERT INTO item_conversions (id, item_id, source_unit, target_unit, factor, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		conv.ID, conv.ItemID, conv.SourceUnit, conv.TargetUnit, conv.Factor,
		conv.CreatedBy, conv.UpdatedBy,
	).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a conversion mapping by ID
func (r *ConversionRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*ConversionMapping, error) {
	var conv ConversionMapping
	query := `SELECT * FROM item_conversions WHERE id = $1`
	if err := q.GetContext(ctx, &conv, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("conversion mapping")
		}
		return nil, err
	}
	return &conv, nil
}

// Find looks up the mapping for an exact (item, source unit, target unit)
// triple. Returns NotFound when no such direction is stored.
func (r *ConversionRepository) Find(ctx context.Context, q database.Queryer, itemID, sourceUnit, targetUnit string) (*ConversionMapping, error) {
	var conv ConversionMapping
	query := `SELECT * FROM item_conversions WHERE item_id = $1 AND source_unit = $2 AND target_unit = $3`
	if err := q.GetContext(ctx, &conv, query, itemID, sourceUnit, targetUnit); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("conversion mapping")
		}
		return nil, err
	}
	return &conv, nil
}

// List lists all conversion mappings
func (r *ConversionRepository) List(ctx context.Context, q database.Queryer) ([]*ConversionMapping, error) {
	var convs []*ConversionMapping
	query := `SELECT * FROM item_conversions ORDER BY created_at`
	if err := q.SelectContext(ctx, &convs, query); err != nil {
		return nil, err
	}
	return convs, nil
}

// ListByItem lists conversion mappings for an item
func (r *ConversionRepository) ListByItem(ctx context.Context, q database.Queryer, itemID string) ([]*ConversionMapping, error) {
	var convs []*ConversionMapping
	query := `SELECT * FROM item_conversions WHERE item_id = $1 ORDER BY source_unit, target_unit`
	if err := q.SelectContext(ctx, &convs, query, itemID); err != nil {
		return nil, err
	}
	return convs, nil
}

// Update updates a conversion mapping
func (r *ConversionRepository) Update(ctx context.Context, q database.Queryer, conv *ConversionMapping) error {
	query := `
		UPDATE item_conversions SET
			source_unit = $2, target_unit = $3, factor = $4, updated_by = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query,
		conv.ID, conv.SourceUnit, conv.TargetUnit, conv.Factor, conv.UpdatedBy,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("conversion mapping")
	}

	return nil
}

// Delete deletes a conversion mapping
func (r *ConversionRepository) Delete(ctx context.Context, q database.Queryer, id string) error {
	query := `DELETE FROM item_conversions WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("conversion mapping")
	}

	return nil
}
