package orders

import "encoding/json"

type FulfillmentStatus string

const (
	FulfillmentForwarded FulfillmentStatus = "forwarded"
	FulfillmentSkipped   FulfillmentStatus = "skipped"
	FulfillmentFailed    FulfillmentStatus = "failed"
)

// FulfillmentResult is the outcome of handing a paid order to the supplier.
// It is reported, never raised: a failed hand-off does not undo the payment.
type FulfillmentResult struct {
	Status   FulfillmentStatus `json:"status"`
	Message  string            `json:"message,omitempty"`
	Response json.RawMessage   `json:"response,omitempty"`
}
