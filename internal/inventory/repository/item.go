package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// Item is a catalog entry for a produce item. Items are immutable once a
// batch references them, so Update is restricted to the handler-facing
// fields that never affect stock arithmetic.
type Item struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ItemCode    *string   `db:"item_code" json:"item_code,omitempty"`
	DefaultUnit *string   `db:"default_unit" json:"default_unit,omitempty"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	UpdatedBy   string    `db:"updated_by" json:"updated_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ItemRepository handles item persistence
type ItemRepository struct{}

// NewItemRepository creates a new item repository
func NewItemRepository() *ItemRepository {
	return &ItemRepository{}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, q database.Queryer, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO items (id, name, item_code, default_unit, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		item.ID, item.Name, item.ItemCode, item.DefaultUnit, item.CreatedBy, item.UpdatedBy,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, q database.Queryer, id string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE id = $1`
	if err := q.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// GetByName gets an item by its unique name
func (r *ItemRepository) GetByName(ctx context.Context, q database.Queryer, name string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE name = $1`
	if err := q.GetContext(ctx, &item, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// List lists items ordered by name
func (r *ItemRepository) List(ctx context.Context, q database.Queryer) ([]*Item, error) {
	var items []*Item
	query := `SELECT * FROM items ORDER BY name`
	if err := q.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

// Update updates an item
func (r *ItemRepository) Update(ctx context.Context, q database.Queryer, item *Item) error {
	query := `
		UPDATE items SET
			name = $2, item_code = $3, default_unit = $4, updated_by = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.ExecContext(ctx, query,
		item.ID, item.Name, item.ItemCode, item.DefaultUnit, item.UpdatedBy,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}

// Delete deletes an item. Fails with a foreign-key error if batches still
// reference it.
func (r *ItemRepository) Delete(ctx context.Context, q database.Queryer, id string) error {
	query := `DELETE FROM items WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}
