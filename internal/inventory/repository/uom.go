package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// UnitOfMeasure is a unit code (e.g. "KG", "EA") with a description.
type UnitOfMeasure struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	UpdatedBy   string    `db:"updated_by" json:"updated_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// UOMRepository handles unit-of-measure persistence
type UOMRepository struct{}

// NewUOMRepository creates a new unit-of-measure repository
func NewUOMRepository() *UOMRepository {
	return &UOMRepository{}
}

// Create creates a new unit of measure
func (r *UOMRepository) Create(ctx context.Context, q database.Queryer, uom *UnitOfMeasure) error {
	if uom.ID == "" {
		uom.ID = uuid.New().String()
	}

	query := `
		INSERT INTO uoms (id, code, description, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		uom.ID, uom.Code, uom.Description, uom.CreatedBy, uom.UpdatedBy,
	).Scan(&uom.CreatedAt, &uom.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a unit of measure by ID
func (r *UOMRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*UnitOfMeasure, error) {
	var uom UnitOfMeasure
	query := `SELECT * FROM uoms WHERE id = $1`
	if err := q.GetContext(ctx, &uom, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("unit of measure")
		}
		return nil, err
	}
	return &uom, nil
}

// List lists units of measure ordered by code
func (r *UOMRepository) List(ctx context.Context, q database.Queryer) ([]*UnitOfMeasure, error) {
	var uoms []*UnitOfMeasure
	query := `SELECT * FROM uoms ORDER BY code`
	if err := q.SelectContext(ctx, &uoms, query); err != nil {
		return nil, err
	}
	return uoms, nil
}

// Update updates a unit of measure
func (r *UOMRepository) Update(ctx context.Context, q database.Queryer, uom *UnitOfMeasure) error {
	query := `
		UPDATE uoms SET code = $2, description = $3, updated_by = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query, uom.ID, uom.Code, uom.Description, uom.UpdatedBy)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("unit of measure")
	}

	return nil
}

// Delete deletes a unit of measure
func (r *UOMRepository) Delete(ctx context.Context, q database.Queryer, id string) error {
	query := `DELETE FROM uoms WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("unit of measure")
	}

	return nil
}
