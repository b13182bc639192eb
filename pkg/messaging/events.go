package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventStockReceived   = "inventory.stock.received"
	EventStockDispatched = "inventory.stock.dispatched"
	EventStockRejected   = "inventory.stock.rejected"
	EventBatchExpiring   = "inventory.batch.expiring"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// StockMovementEvent is published after a committed stock movement. Mirrors
// the ledger row, not the request, so consumers see normalized quantities.
type StockMovementEvent struct {
	TxnID      string  `json:"txn_id"`
	ItemID     string  `json:"item_id"`
	BatchID    string  `json:"batch_id,omitempty"`
	TxnType    string  `json:"txn_type"`
	RawQty     float64 `json:"raw_qty"`
	RawUnit    string  `json:"raw_unit"`
	BaseQty    float64 `json:"base_qty"`
	BaseUnit   string  `json:"base_unit"`
	RefType    string  `json:"ref_type"`
	RefID      string  `json:"ref_id"`
	ActingUser string  `json:"acting_user"`
}

// BatchExpiringEvent is published for batches approaching their expiry date.
type BatchExpiringEvent struct {
	BatchID    string  `json:"batch_id"`
	ItemID     string  `json:"item_id"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	ExpiryDate string  `json:"expiry_date"`
	DaysLeft   int     `json:"days_left"`
}
