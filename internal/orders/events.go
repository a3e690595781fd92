package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated      = "OrderCreated"
	EventOrderPaid         = "OrderPaid"
	EventFulfillmentResult = "FulfillmentResult"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID string          `json:"order_id"`
	Items   []CartItem      `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

type OrderPaidPayload struct {
	OrderID  string          `json:"order_id"`
	Items    []CartItem      `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Customer map[string]any  `json:"customer,omitempty"`
}

type FulfillmentResultPayload struct {
	OrderID string            `json:"order_id"`
	Status  FulfillmentStatus `json:"status"`
	Message string            `json:"message,omitempty"`
}
