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

// DispatchService handles dispatches to marts and keeps batches, orders and
// the ledger reconciled. Every mutation runs in a single transaction: the
// batch decrement, any order advancement and the ledger rows commit together
// or not at all.
type DispatchService struct {
	db        *database.DB
	batches   *repository.BatchRepository
	orders    *repository.OrderRepository
	entries   *repository.DispatchEntryRepository
	txns      *repository.TxnRepository
	resolver  *ConversionResolver
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(
	db *database.DB,
	batches *repository.BatchRepository,
	orders *repository.OrderRepository,
	entries *repository.DispatchEntryRepository,
	txns *repository.TxnRepository,
	resolver *ConversionResolver,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *DispatchService {
	return &DispatchService{
		db:        db,
		batches:   batches,
		orders:    orders,
		entries:   entries,
		txns:      txns,
		resolver:  resolver,
		publisher: publisher,
		logger:    log.WithComponent("dispatch-service"),
	}
}

// SingleDispatch dispatches from one batch, outside of any order allocation.
type SingleDispatch struct {
	BatchID      string
	MartName     string
	DispatchDate time.Time
	Quantity     float64
	Unit         string
	Remarks      *string
}

// BatchAllocation names how much of an order dispatch one batch supplies.
type BatchAllocation struct {
	BatchID  string
	Quantity float64
}

// OrderDispatch fulfills (part of) an open order by drawing from one or more
// batches.
type OrderDispatch struct {
	ItemID       string
	MartName     string
	DispatchDate time.Time
	Unit         string
	Remarks      *string
	Allocations  []BatchAllocation
}

// DispatchUpdate carries the editable fields of a dispatch entry. Nil means
// "leave unchanged".
type DispatchUpdate struct {
	DispatchDate *time.Time
	Quantity     *float64
	Unit         *string
	Remarks      *string
}

// Dispatch records a single-batch dispatch. At most one dispatch may exist
// for an item/mart/date triple on this path; duplicates are a Conflict. If an
// open order exists for the item and mart it advances, otherwise the dispatch
// stands alone as an unplanned sale.
func (s *DispatchService) Dispatch(ctx context.Context, in *SingleDispatch) (*repository.DispatchEntry, error) {
	user := actor.FromContext(ctx)

	var entry *repository.DispatchEntry
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

		exists, err := s.entries.ExistsForItemMartDate(ctx, tx, batch.ItemID, in.MartName, in.DispatchDate)
		if err != nil {
			return err
		}
		if exists {
			return errors.Conflict(fmt.Sprintf(
				"dispatch already recorded for item %s to %s on %s",
				batch.ItemID, in.MartName, in.DispatchDate.Format("2006-01-02"),
			))
		}

		entry = &repository.DispatchEntry{
			BatchID:      batch.ID,
			ItemID:       batch.ItemID,
			MartName:     in.MartName,
			DispatchDate: in.DispatchDate,
			Quantity:     in.Quantity,
			Unit:         in.Unit,
			Remarks:      in.Remarks,
			CreatedBy:    user,
			UpdatedBy:    user,
		}
		if err := s.entries.Create(ctx, tx, entry); err != nil {
			return err
		}

		if _, err := s.batches.ApplyDelta(ctx, tx, batch.ID, -in.Quantity, user); err != nil {
			return err
		}

		if err := s.adjustOrder(ctx, tx, batch.ItemID, in.MartName, in.Quantity, user); err != nil {
			return err
		}

		factor, err := s.resolver.Factor(ctx, tx, batch.ItemID, in.Unit, batch.Unit)
		if err != nil {
			return err
		}

		txn = &repository.InventoryTxn{
			ItemID:   batch.ItemID,
			BatchID:  &batch.ID,
			TxnType:  repository.TxnTypeOut,
			RawQty:   in.Quantity,
			RawUnit:  in.Unit,
			BaseQty:  in.Quantity * factor,
			BaseUnit: batch.Unit,
			RefType:  repository.RefTypeDispatchEntry,
			RefID:    entry.ID,
			Remarks:  in.Remarks,
		}
		return s.txns.Create(ctx, tx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishStockMovement(ctx, txn, user)

	s.logger.Info().
		Str("dispatch_entry_id", entry.ID).
		Str("batch_id", entry.BatchID).
		Str("mart_name", entry.MartName).
		Float64("quantity", entry.Quantity).
		Msg("stock dispatched")

	return entry, nil
}

// DispatchFromOrder fulfills an open order from one or more batches. Each
// allocation decrements its batch and writes its own OUT row; repeated
// dispatches of the same batch to the same mart and date accumulate into the
// existing entry. The order advances once, by the total across allocations.
// It is an error if no open order exists for the item and mart.
func (s *DispatchService) DispatchFromOrder(ctx context.Context, in *OrderDispatch) ([]*repository.DispatchEntry, error) {
	user := actor.FromContext(ctx)

	if len(in.Allocations) == 0 {
		return nil, errors.BadRequest("at least one batch allocation is required")
	}

	var dispatched []*repository.DispatchEntry
	var txns []*repository.InventoryTxn

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		order, err := s.orders.FindOpenForUpdate(ctx, tx, in.ItemID, in.MartName)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return errors.BadRequest(fmt.Sprintf(
					"no open order for item %s at %s", in.ItemID, in.MartName,
				))
			}
			return err
		}

		total := 0.0
		for _, alloc := range in.Allocations {
			batch, err := s.batches.GetByIDForUpdate(ctx, tx, alloc.BatchID)
			if err != nil {
				return err
			}
			if batch.ItemID != in.ItemID {
				return errors.BadRequest(fmt.Sprintf(
					"batch %s does not belong to item %s", batch.ID, in.ItemID,
				))
			}
			if batch.Quantity < alloc.Quantity {
				return errors.InsufficientStock(fmt.Sprintf(
					"not enough stock in batch %s: available %g, requested %g",
					batch.ID, batch.Quantity, alloc.Quantity,
				))
			}

			entry, err := s.entries.FindByBatchMartDateForUpdate(ctx, tx, batch.ID, in.MartName, in.DispatchDate)
			switch {
			case err == nil:
				entry.Quantity += alloc.Quantity
				entry.UpdatedBy = user
				if err := s.entries.Update(ctx, tx, entry); err != nil {
					return err
				}
			case errors.Is(err, errors.ErrNotFound):
				entry = &repository.DispatchEntry{
					BatchID:      batch.ID,
					ItemID:       in.ItemID,
					MartName:     in.MartName,
					DispatchDate: in.DispatchDate,
					Quantity:     alloc.Quantity,
					Unit:         in.Unit,
					Remarks:      in.Remarks,
					CreatedBy:    user,
					UpdatedBy:    user,
				}
				if err := s.entries.Create(ctx, tx, entry); err != nil {
					return err
				}
			default:
				return err
			}

			if _, err := s.batches.ApplyDelta(ctx, tx, batch.ID, -alloc.Quantity, user); err != nil {
				return err
			}

			factor, err := s.resolver.Factor(ctx, tx, in.ItemID, in.Unit, batch.Unit)
			if err != nil {
				return err
			}

			txn := &repository.InventoryTxn{
				ItemID:   in.ItemID,
				BatchID:  &batch.ID,
				TxnType:  repository.TxnTypeOut,
				RawQty:   alloc.Quantity,
				RawUnit:  in.Unit,
				BaseQty:  alloc.Quantity * factor,
				BaseUnit: batch.Unit,
				RefType:  repository.RefTypeDispatchEntry,
				RefID:    entry.ID,
				Remarks:  in.Remarks,
			}
			if err := s.txns.Create(ctx, tx, txn); err != nil {
				return err
			}

			dispatched = append(dispatched, entry)
			txns = append(txns, txn)
			total += alloc.Quantity
		}

		order.Advance(total)
		order.UpdatedBy = user
		return s.orders.UpdateProgress(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	for _, txn := range txns {
		s.publisher.PublishStockMovement(ctx, txn, user)
	}

	s.logger.Info().
		Str("item_id", in.ItemID).
		Str("mart_name", in.MartName).
		Int("allocations", len(in.Allocations)).
		Msg("order dispatched")

	return dispatched, nil
}

// Get returns a dispatch entry by ID
func (s *DispatchService) Get(ctx context.Context, id string) (*repository.DispatchEntry, error) {
	return s.entries.GetByID(ctx, s.db, id)
}

// List lists dispatch entries with optional date and mart filters
func (s *DispatchService) List(ctx context.Context, dispatchDate *time.Time, martName string, offset, limit int) ([]*repository.DispatchEntry, error) {
	return s.entries.List(ctx, s.db, dispatchDate, martName, offset, limit)
}

// Update edits a dispatch entry and reconciles the difference. Growing the
// dispatch takes more out of the batch and writes an OUT row; shrinking it
// puts stock back and writes an IN row. The order's dispatched quantity moves
// by the same difference and its status is recomputed.
func (s *DispatchService) Update(ctx context.Context, id string, upd *DispatchUpdate) (*repository.DispatchEntry, error) {
	user := actor.FromContext(ctx)

	var entry *repository.DispatchEntry
	var txn *repository.InventoryTxn

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		entry, err = s.entries.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		batch, err := s.batches.GetByIDForUpdate(ctx, tx, entry.BatchID)
		if err != nil {
			return err
		}

		diff := 0.0
		if upd.Quantity != nil {
			diff = *upd.Quantity - entry.Quantity
			entry.Quantity = *upd.Quantity
		}
		if upd.DispatchDate != nil {
			entry.DispatchDate = *upd.DispatchDate
		}
		if upd.Unit != nil {
			entry.Unit = *upd.Unit
		}
		if upd.Remarks != nil {
			entry.Remarks = upd.Remarks
		}
		entry.UpdatedBy = user

		if err := s.entries.Update(ctx, tx, entry); err != nil {
			return err
		}

		if diff == 0 {
			return nil
		}

		// A larger dispatch pulls diff more out of the batch.
		if _, err := s.batches.ApplyDelta(ctx, tx, batch.ID, -diff, user); err != nil {
			return err
		}

		if err := s.adjustOrder(ctx, tx, entry.ItemID, entry.MartName, diff, user); err != nil {
			return err
		}

		factor, err := s.resolver.Factor(ctx, tx, entry.ItemID, entry.Unit, batch.Unit)
		if err != nil {
			return err
		}

		txnType := repository.TxnTypeOut
		if diff < 0 {
			txnType = repository.TxnTypeIn
		}
		magnitude := diff
		if magnitude < 0 {
			magnitude = -magnitude
		}
		remarks := "dispatch adjusted"
		txn = &repository.InventoryTxn{
			ItemID:   entry.ItemID,
			BatchID:  &entry.BatchID,
			TxnType:  txnType,
			RawQty:   magnitude,
			RawUnit:  entry.Unit,
			BaseQty:  magnitude * factor,
			BaseUnit: batch.Unit,
			RefType:  repository.RefTypeDispatchEntry,
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

// Delete removes a dispatch entry and reverses it: the quantity goes back
// into the batch, the order's dispatched quantity shrinks and its status is
// recomputed, and a compensating IN row records the restock.
func (s *DispatchService) Delete(ctx context.Context, id string) error {
	user := actor.FromContext(ctx)

	var txn *repository.InventoryTxn

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		entry, err := s.entries.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		batch, err := s.batches.GetByIDForUpdate(ctx, tx, entry.BatchID)
		if err != nil {
			return err
		}

		if _, err := s.batches.ApplyDelta(ctx, tx, batch.ID, entry.Quantity, user); err != nil {
			return err
		}

		if err := s.adjustOrder(ctx, tx, entry.ItemID, entry.MartName, -entry.Quantity, user); err != nil {
			return err
		}

		factor, err := s.resolver.Factor(ctx, tx, entry.ItemID, entry.Unit, batch.Unit)
		if err != nil {
			return err
		}

		remarks := "dispatch deleted, stock restored"
		txn = &repository.InventoryTxn{
			ItemID:   entry.ItemID,
			BatchID:  &entry.BatchID,
			TxnType:  repository.TxnTypeIn,
			RawQty:   entry.Quantity,
			RawUnit:  entry.Unit,
			BaseQty:  entry.Quantity * factor,
			BaseUnit: batch.Unit,
			RefType:  repository.RefTypeDispatchEntry,
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

// adjustOrder moves the matching order's dispatched quantity by delta. The
// open order for the item and mart is preferred; when none is open the most
// recent order takes the delta instead, which is how a negative adjustment
// reaches a Completed order and reverts it. No matching order at all is fine:
// the dispatch is an unplanned sale.
func (s *DispatchService) adjustOrder(ctx context.Context, tx *sqlx.Tx, itemID, martName string, delta float64, user string) error {
	order, err := s.orders.FindOpenForUpdate(ctx, tx, itemID, martName)
	if errors.Is(err, errors.ErrNotFound) {
		order, err = s.orders.FindLatestForUpdate(ctx, tx, itemID, martName)
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
	}
	if err != nil {
		return err
	}

	order.Advance(delta)
	order.UpdatedBy = user
	return s.orders.UpdateProgress(ctx, tx, order)
}
