package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderRequested = "OrderRequested"
	EventOrderChanged   = "OrderChanged"
)

const (
	TopicOrderRequests    = "orders.requested"
	TopicOrderChanges     = "orders.changed"
	TopicOrderDeadLetters = "orders.deadletter"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ChangeEvent carries the full new order image after a store write. Only the
// new image travels; consumers never see the previous record.
type ChangeEvent struct {
	NewImage Order `json:"newImage"`
}

// PartitionKey keeps every event for one order on one partition so per-order
// ordering holds.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
