package service

import (
	"context"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
)

// LedgerService exposes read access to the movement ledger. The ledger is
// append-only; rows are written by the movement flows and never from here.
type LedgerService struct {
	db   *database.DB
	txns *repository.TxnRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *database.DB, txns *repository.TxnRepository) *LedgerService {
	return &LedgerService{db: db, txns: txns}
}

// List lists ledger rows with pagination, newest first
func (s *LedgerService) List(ctx context.Context, offset, limit int) ([]*repository.InventoryTxn, error) {
	return s.txns.List(ctx, s.db, offset, limit)
}

// ListByItem lists the full movement history of an item, oldest first
func (s *LedgerService) ListByItem(ctx context.Context, itemID string) ([]*repository.InventoryTxn, error) {
	return s.txns.ListByItem(ctx, s.db, itemID)
}

// ListByBatch lists the full movement history of a batch, oldest first
func (s *LedgerService) ListByBatch(ctx context.Context, batchID string) ([]*repository.InventoryTxn, error) {
	return s.txns.ListByBatch(ctx, s.db, batchID)
}
