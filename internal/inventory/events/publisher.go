package events

import (
	"context"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
	"github.com/freshtrack/freshtrack-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory movement events. Publishing is
// best-effort and happens after the owning transaction commits; a broker
// failure is logged, never propagated.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-service", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockMovement publishes the ledger row for a committed movement.
func (p *InventoryEventPublisher) PublishStockMovement(ctx context.Context, txn *repository.InventoryTxn, actingUser string) {
	if p == nil {
		return
	}

	batchID := ""
	if txn.BatchID != nil {
		batchID = *txn.BatchID
	}

	eventType := messaging.EventStockDispatched
	switch txn.RefType {
	case repository.RefTypeStockEntry:
		eventType = messaging.EventStockReceived
	case repository.RefTypeRejectionEntry:
		eventType = messaging.EventStockRejected
	}

	data := messaging.StockMovementEvent{
		TxnID:      txn.ID,
		ItemID:     txn.ItemID,
		BatchID:    batchID,
		TxnType:    txn.TxnType,
		RawQty:     txn.RawQty,
		RawUnit:    txn.RawUnit,
		BaseQty:    txn.BaseQty,
		BaseUnit:   txn.BaseUnit,
		RefType:    txn.RefType,
		RefID:      txn.RefID,
		ActingUser: actingUser,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("txn_id", txn.ID).Msg("failed to publish stock movement event")
	}
}

// PublishBatchExpiring publishes an expiry warning for a batch.
func (p *InventoryEventPublisher) PublishBatchExpiring(ctx context.Context, batch *repository.Batch, daysLeft int) {
	if p == nil {
		return
	}
	if batch.ExpiryDate == nil {
		return
	}

	data := messaging.BatchExpiringEvent{
		BatchID:    batch.ID,
		ItemID:     batch.ItemID,
		Quantity:   batch.Quantity,
		Unit:       batch.Unit,
		ExpiryDate: batch.ExpiryDate.Format("2006-01-02"),
		DaysLeft:   daysLeft,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchExpiring, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to publish batch expiring event")
	}
}
