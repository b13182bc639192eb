package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/events"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/actor"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// BatchService exposes read and administrative access to batches. Quantities
// are never edited here; they only move through the receiving, dispatch and
// rejection flows.
type BatchService struct {
	db        *database.DB
	batches   *repository.BatchRepository
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewBatchService creates a new batch service
func NewBatchService(
	db *database.DB,
	batches *repository.BatchRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *BatchService {
	return &BatchService{
		db:        db,
		batches:   batches,
		publisher: publisher,
		logger:    log.WithComponent("batch-service"),
	}
}

// BatchUpdate carries the editable administrative fields of a batch. Nil
// means "leave unchanged". Quantity is deliberately absent.
type BatchUpdate struct {
	Unit       *string
	ExpiryDate *time.Time
	ReceivedAt *time.Time
	Remarks    *string
}

// Get returns a batch by ID
func (s *BatchService) Get(ctx context.Context, id string) (*repository.Batch, error) {
	return s.batches.GetByID(ctx, s.db, id)
}

// List lists batches with pagination
func (s *BatchService) List(ctx context.Context, offset, limit int) ([]*repository.Batch, error) {
	return s.batches.List(ctx, s.db, offset, limit)
}

// ListInStock lists the batches of an item that still hold stock, oldest
// first, for allocation pickers.
func (s *BatchService) ListInStock(ctx context.Context, itemID string) ([]*repository.Batch, error) {
	return s.batches.ListByItemInStock(ctx, s.db, itemID)
}

// Update applies an administrative edit to a batch
func (s *BatchService) Update(ctx context.Context, id string, upd *BatchUpdate) (*repository.Batch, error) {
	user := actor.FromContext(ctx)

	var batch *repository.Batch
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		batch, err = s.batches.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if upd.Unit != nil {
			batch.Unit = *upd.Unit
		}
		if upd.ExpiryDate != nil {
			batch.ExpiryDate = upd.ExpiryDate
		}
		if upd.ReceivedAt != nil {
			batch.ReceivedAt = *upd.ReceivedAt
		}
		if upd.Remarks != nil {
			batch.Remarks = upd.Remarks
		}
		batch.UpdatedBy = user

		return s.batches.Update(ctx, tx, batch)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// Delete hard-deletes a batch
func (s *BatchService) Delete(ctx context.Context, id string) error {
	return s.batches.Delete(ctx, s.db, id)
}

// PublishExpiryAlerts finds batches with stock expiring within the window and
// publishes a warning event for each. Run it from a scheduler; it never
// mutates state.
func (s *BatchService) PublishExpiryAlerts(ctx context.Context, withinDays int) (int, error) {
	batches, err := s.batches.ListExpiring(ctx, s.db, withinDays)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	for _, batch := range batches {
		daysLeft := int(batch.ExpiryDate.Sub(now).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
		s.publisher.PublishBatchExpiring(ctx, batch, daysLeft)
	}

	if len(batches) > 0 {
		s.logger.Info().Int("count", len(batches)).Msg("expiry alerts published")
	}

	return len(batches), nil
}
