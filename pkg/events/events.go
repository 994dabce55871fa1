package events

import (
	"encoding/json"
	"time"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Envelope wraps every event written to the orders topic.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID      string            `json:"order_id"`
	CustomerName string            `json:"customer_name"`
	Items        []models.LineItem `json:"items"`
	TotalAmount  float64           `json:"total_amount"`
}

type OrderStatusChangedPayload struct {
	OrderID string            `json:"order_id"`
	From    models.Status     `json:"from"`
	To      models.Status     `json:"to"`
	Items   []models.LineItem `json:"items"`
}

// PartitionKey keeps every event of one order on the same partition.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
