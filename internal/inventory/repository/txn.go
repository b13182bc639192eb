package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/freshtrack/freshtrack-backend/pkg/database"
)

// Transaction types for the movement ledger
const (
	TxnTypeIn     = "IN"
	TxnTypeOut    = "OUT"
	TxnTypeAdjust = "ADJUST"
)

// Reference types linking a ledger row to the record that caused it
const (
	RefTypeStockEntry     = "stock_entry"
	RefTypeDispatchEntry  = "dispatch_entry"
	RefTypeRejectionEntry = "rejection_entry"
)

// InventoryTxn is one row of the append-only movement ledger. Quantities are
// stored both as entered (raw) and normalized to the batch's unit (base) so
// movements recorded in different units stay comparable. Rows are never
// updated or deleted; corrections append compensating rows.
type InventoryTxn struct {
	ID        string    `db:"id" json:"id"`
	ItemID    string    `db:"item_id" json:"item_id"`
	BatchID   *string   `db:"batch_id" json:"batch_id,omitempty"`
	TxnType   string    `db:"txn_type" json:"txn_type"`
	RawQty    float64   `db:"raw_qty" json:"raw_qty"`
	RawUnit   string    `db:"raw_unit" json:"raw_unit"`
	BaseQty   float64   `db:"base_qty" json:"base_qty"`
	BaseUnit  string    `db:"base_unit" json:"base_unit"`
	RefType   string    `db:"ref_type" json:"ref_type"`
	RefID     string    `db:"ref_id" json:"ref_id"`
	Remarks   *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TxnRepository appends to and reads the inventory ledger
type TxnRepository struct{}

// NewTxnRepository creates a new ledger repository
func NewTxnRepository() *TxnRepository {
	return &TxnRepository{}
}

// Create appends a ledger row
func (r *TxnRepository) Create(ctx context.Context, q database.Queryer, txn *InventoryTxn) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}

	query := `
		INSERT INTO inventory_txns (
			id, item_id, batch_id, txn_type, raw_qty, raw_unit, base_qty, base_unit,
			ref_type, ref_id, remarks
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err := q.QueryRowxContext(ctx, query,
		txn.ID, txn.ItemID, txn.BatchID, txn.TxnType, txn.RawQty, txn.RawUnit,
		txn.BaseQty, txn.BaseUnit, txn.RefType, txn.RefID, txn.Remarks,
	).Scan(&txn.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// List lists ledger rows with pagination, newest first
func (r *TxnRepository) List(ctx context.Context, q database.Queryer, offset, limit int) ([]*InventoryTxn, error) {
	var txns []*InventoryTxn
	query := `SELECT * FROM inventory_txns ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	if err := q.SelectContext(ctx, &txns, query, offset, limit); err != nil {
		return nil, err
	}
	return txns, nil
}

// ListByItem lists ledger rows for an item, oldest first for reconciliation
func (r *TxnRepository) ListByItem(ctx context.Context, q database.Queryer, itemID string) ([]*InventoryTxn, error) {
	var txns []*InventoryTxn
	query := `SELECT * FROM inventory_txns WHERE item_id = $1 ORDER BY created_at`
	if err := q.SelectContext(ctx, &txns, query, itemID); err != nil {
		return nil, err
	}
	return txns, nil
}

// ListByBatch lists ledger rows for a batch, oldest first
func (r *TxnRepository) ListByBatch(ctx context.Context, q database.Queryer, batchID string) ([]*InventoryTxn, error) {
	var txns []*InventoryTxn
	query := `SELECT * FROM inventory_txns WHERE batch_id = $1 ORDER BY created_at`
	if err := q.SelectContext(ctx, &txns, query, batchID); err != nil {
		return nil, err
	}
	return txns, nil
}
