package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/events"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/actor"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// ReceivingService handles stock receipts: the flow that grows batches and
// writes IN rows to the ledger.
type ReceivingService struct {
	db        *database.DB
	items     *repository.ItemRepository
	batches   *repository.BatchRepository
	entries   *repository.StockEntryRepository
	txns      *repository.TxnRepository
	resolver  *ConversionResolver
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewReceivingService creates a new receiving service
func NewReceivingService(
	db *database.DB,
	items *repository.ItemRepository,
	batches *repository.BatchRepository,
	entries *repository.StockEntryRepository,
	txns *repository.TxnRepository,
	resolver *ConversionResolver,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *ReceivingService {
	return &ReceivingService{
		db:        db,
		items:     items,
		batches:   batches,
		entries:   entries,
		txns:      txns,
		resolver:  resolver,
		publisher: publisher,
		logger:    log.WithComponent("receiving-service"),
	}
}

// StockReceipt is the input for recording a receipt.
type StockReceipt struct {
	ItemID       string
	ReceivedDate time.Time
	Quantity     float64
	Unit         string
	PricePerUnit decimal.Decimal
	TotalCost    decimal.Decimal
	Source       *string
	ExpiryDate   *time.Time
}

// StockEntryUpdate carries the editable fields of a stock entry. Nil means
// "leave unchanged". The batch linkage is fixed at creation; edits re-apply
// the quantity difference to the same batch.
type StockEntryUpdate struct {
	ReceivedDate *time.Time
	Source       *string
	PricePerUnit *decimal.Decimal
	TotalCost    *decimal.Decimal
	Quantity     *float64
	Unit         *string
}

// Receive records a stock receipt. Receipts for the same item and received
// date merge into the existing batch instead of opening a new one; either way
// the batch grows by the received quantity and an IN row lands in the ledger.
func (s *ReceivingService) Receive(ctx context.Context, in *StockReceipt) (*repository.StockEntry, error) {
	user := actor.FromContext(ctx)

	var entry *repository.StockEntry
	var txn *repository.InventoryTxn

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		item, err := s.items.GetByID(ctx, tx, in.ItemID)
		if err != nil {
			return err
		}

		batch, err := s.batches.FindByItemAndDateForUpdate(ctx, tx, in.ItemID, in.ReceivedDate)
		switch {
		case err == nil:
			batch, err = s.batches.ApplyDelta(ctx, tx, batch.ID, in.Quantity, user)
			if err != nil {
				return err
			}
		case errors.Is(err, errors.ErrNotFound):
			unit := in.Unit
			if item.DefaultUnit != nil && *item.DefaultUnit != "" {
				unit = *item.DefaultUnit
			}
			batch = &repository.Batch{
				ItemID:     in.ItemID,
				Quantity:   in.Quantity,
				Unit:       unit,
				ExpiryDate: in.ExpiryDate,
				ReceivedAt: in.ReceivedDate,
				CreatedBy:  user,
				UpdatedBy:  user,
			}
			if err := s.batches.Create(ctx, tx, batch); err != nil {
				return err
			}
		default:
			return err
		}

		entry = &repository.StockEntry{
			BatchID:      batch.ID,
			ItemID:       in.ItemID,
			ReceivedDate: in.ReceivedDate,
			Source:       in.Source,
			PricePerUnit: in.PricePerUnit,
			TotalCost:    in.TotalCost,
			Quantity:     in.Quantity,
			Unit:         in.Unit,
			CreatedBy:    user,
			UpdatedBy:    user,
		}
		if err := s.entries.Create(ctx, tx, entry); err != nil {
			return err
		}

		factor, err := s.resolver.Factor(ctx, tx, in.ItemID, in.Unit, batch.Unit)
		if err != nil {
			return err
		}

		txn = &repository.InventoryTxn{
			ItemID:   in.ItemID,
			BatchID:  &batch.ID,
			TxnType:  repository.TxnTypeIn,
			RawQty:   in.Quantity,
			RawUnit:  in.Unit,
			BaseQty:  in.Quantity * factor,
			BaseUnit: batch.Unit,
			RefType:  repository.RefTypeStockEntry,
			RefID:    entry.ID,
		}
		return s.txns.Create(ctx, tx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishStockMovement(ctx, txn, user)

	s.logger.Info().
		Str("stock_entry_id", entry.ID).
		Str("item_id", entry.ItemID).
		Str("batch_id", entry.BatchID).
		Float64("quantity", entry.Quantity).
		Msg("stock received")

	return entry, nil
}

// Get returns a stock entry by ID
func (s *ReceivingService) Get(ctx context.Context, id string) (*repository.StockEntry, error) {
	return s.entries.GetByID(ctx, s.db, id)
}

// List lists stock entries with an optional received-date filter
func (s *ReceivingService) List(ctx context.Context, receivedDate *time.Time, offset, limit int) ([]*repository.StockEntry, error) {
	return s.entries.List(ctx, s.db, receivedDate, offset, limit)
}

// UpdateEntry edits a stock entry and re-applies the quantity difference to
// its batch. Growing the entry writes an IN row for the difference, shrinking
// it writes an OUT row; shrinking below what the batch still holds fails.
func (s *ReceivingService) UpdateEntry(ctx context.Context, id string, upd *StockEntryUpdate) (*repository.StockEntry, error) {
	user := actor.FromContext(ctx)

	var entry *repository.StockEntry
	var txn *repository.InventoryTxn

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		entry, err = s.entries.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		delta := 0.0
		if upd.Quantity != nil {
			delta = *upd.Quantity - entry.Quantity
			entry.Quantity = *upd.Quantity
		}
		if upd.ReceivedDate != nil {
			entry.ReceivedDate = *upd.ReceivedDate
		}
		if upd.Source != nil {
			entry.Source = upd.Source
		}
		if upd.PricePerUnit != nil {
			entry.PricePerUnit = *upd.PricePerUnit
		}
		if upd.TotalCost != nil {
			entry.TotalCost = *upd.TotalCost
		}
		if upd.Unit != nil {
			entry.Unit = *upd.Unit
		}
		entry.UpdatedBy = user

		if err := s.entries.Update(ctx, tx, entry); err != nil {
			return err
		}

		if delta == 0 {
			return nil
		}

		batch, err := s.batches.ApplyDelta(ctx, tx, entry.BatchID, delta, user)
		if err != nil {
			return err
		}

		factor, err := s.resolver.Factor(ctx, tx, entry.ItemID, entry.Unit, batch.Unit)
		if err != nil {
			return err
		}

		txnType := repository.TxnTypeIn
		if delta < 0 {
			txnType = repository.TxnTypeOut
		}
		magnitude := delta
		if magnitude < 0 {
			magnitude = -magnitude
		}
		remarks := "stock entry adjusted"
		txn = &repository.InventoryTxn{
			ItemID:   entry.ItemID,
			BatchID:  &entry.BatchID,
			TxnType:  txnType,
			RawQty:   magnitude,
			RawUnit:  entry.Unit,
			BaseQty:  magnitude * factor,
			BaseUnit: batch.Unit,
			RefType:  repository.RefTypeStockEntry,
			RefID:    entry.ID,
			Remarks:  &remarks,
		}
		return s.txns.Create(ctx, tx, txn)
	})
	if err != nil {
		return nil, err
	}

	if txn != nil {
		s.publisher.PublishStockMovement(ctx, txn, user)
	}

	return entry, nil
}

// DeleteEntry removes a stock entry and takes its quantity back out of the
// batch. The removal is itself a movement: an OUT row records it, so the
// ledger stays complete even though the entry row is gone.
func (s *ReceivingService) DeleteEntry(ctx context.Context, id string) error {
	user := actor.FromContext(ctx)

	var txn *repository.InventoryTxn

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		entry, err := s.entries.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		batch, err := s.batches.ApplyDelta(ctx, tx, entry.BatchID, -entry.Quantity, user)
		if err != nil {
			return err
		}

		factor, err := s.resolver.Factor(ctx, tx, entry.ItemID, entry.Unit, batch.Unit)
		if err != nil {
			return err
		}

		remarks := "stock entry deleted"
		txn = &repository.InventoryTxn{
			ItemID:   entry.ItemID,
			BatchID:  &entry.BatchID,
			TxnType:  repository.TxnTypeOut,
			RawQty:   entry.Quantity,
			RawUnit:  entry.Unit,
			BaseQty:  entry.Quantity * factor,
			BaseUnit: batch.Unit,
			RefType:  repository.RefTypeStockEntry,
			RefID:    entry.ID,
			Remarks:  &remarks,
		}
		if err := s.txns.Create(ctx, tx, txn); err != nil {
			return err
		}

		return s.entries.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishStockMovement(ctx, txn, user)
	return nil
}
