package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/events"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/actor"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// RejectionService records spoilage and returns taken out of batches.
type RejectionService struct {
	db        *database.DB
	batches   *repository.BatchRepository
	entries   *repository.RejectionEntryRepository
	txns      *repository.TxnRepository
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewRejectionService creates a new rejection service
func NewRejectionService(
	db *database.DB,
	batches *repository.BatchRepository,
	entries *repository.RejectionEntryRepository,
	txns *repository.TxnRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *RejectionService {
	return &RejectionService{
		db:        db,
		batches:   batches,
		entries:   entries,
		txns:      txns,
		publisher: publisher,
		logger:    log.WithComponent("rejection-service"),
	}
}

// Rejection is the input for recording rejected stock.
type Rejection struct {
	BatchID       string
	Quantity      float64
	Reason        *string
	RejectedBy    *string
	RejectionDate time.Time
}

// Reject takes rejected stock out of a batch. The rejection inherits the
// batch's item and unit, so no conversion is involved and the ledger's raw
// and base quantities coincide.
func (s *RejectionService) Reject(ctx context.Context, in *Rejection) (*repository.RejectionEntry, error) {
	user := actor.FromContext(ctx)

	var entry *repository.RejectionEntry
	var txn *repository.InventoryTxn

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		batch, err := s.batches.GetByIDForUpdate(ctx, tx, in.BatchID)
		if err != nil {
			return err
		}

		if batch.Quantity < in.Quantity {
			return errors.InsufficientStock(fmt.Sprintf(
				"not enough stock in batch %s: available %g, requested %g",
				batch.ID, batch.Quantity, in.Quantity,
			))
		}

		entry = &repository.RejectionEntry{
			BatchID:       batch.ID,
			ItemID:        batch.ItemID,
			Quantity:      in.Quantity,
			Unit:          batch.Unit,
			Reason:        in.Reason,
			RejectedBy:    in.RejectedBy,
			RejectionDate: in.RejectionDate,
			CreatedBy:     user,
			UpdatedBy:     user,
		}
		if err := s.entries.Create(ctx, tx, entry); err != nil {
			return err
		}

		if _, err := s.batches.ApplyDelta(ctx, tx, batch.ID, -in.Quantity, user); err != nil {
			return err
		}

		txn = &repository.InventoryTxn{
			ItemID:   batch.ItemID,
			BatchID:  &batch.ID,
			TxnType:  repository.TxnTypeOut,
			RawQty:   in.Quantity,
			RawUnit:  batch.Unit,
			BaseQty:  in.Quantity,
			BaseUnit: batch.Unit,
			RefType:  repository.RefTypeRejectionEntry,
			RefID:    entry.ID,
			Remarks:  in.Reason,
		}
		return s.txns.Create(ctx, tx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishStockMovement(ctx, txn, user)

	s.logger.Info().
		Str("rejection_entry_id", entry.ID).
		Str("batch_id", entry.BatchID).
		Float64("quantity", entry.Quantity).
		Msg("stock rejected")

	return entry, nil
}

// Get returns a rejection entry by ID
func (s *RejectionService) Get(ctx context.Context, id string) (*repository.RejectionEntry, error) {
	return s.entries.GetByID(ctx, s.db, id)
}

// List lists all rejection entries
func (s *RejectionService) List(ctx context.Context) ([]*repository.RejectionEntry, error) {
	return s.entries.List(ctx, s.db)
}

// ListByDateAndItems lists rejections for a date, optionally restricted to items
func (s *RejectionService) ListByDateAndItems(ctx context.Context, rejectionDate time.Time, itemIDs []string) ([]*repository.RejectionEntry, error) {
	return s.entries.ListByDateAndItems(ctx, s.db, rejectionDate, itemIDs)
}
