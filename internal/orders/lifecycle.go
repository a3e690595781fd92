package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-dropship-orders/internal/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Catalog interface {
	Products(ctx context.Context) ([]Product, error)
}

type Gateway interface {
	CreateOrder(ctx context.Context, total decimal.Decimal) (string, error)
	CaptureOrder(ctx context.Context, remoteID string) (json.RawMessage, error)
}

type Forwarder interface {
	Forward(ctx context.Context, o Order) FulfillmentResult
}

type StatusCache interface {
	SetStatus(ctx context.Context, orderID string, s Status) error
	GetStatus(ctx context.Context, orderID string) (Status, bool, error)
	DeleteStatus(ctx context.Context, orderID string) error
}

type EventPublisher interface {
	PublishEvent(key []byte, eventType string, value []byte)
}

// Controller runs the order lifecycle: create (pending) -> capture (paid) ->
// forward to the supplier. It is the only writer of the Ledger.
type Controller struct {
	Catalog   Catalog
	Ledger    Ledger
	Gateway   Gateway
	Forwarder Forwarder

	// optional
	Cache             StatusCache
	CreatedEvents     EventPublisher
	PaidEvents        EventPublisher
	FulfillmentEvents EventPublisher

	Service string
	Log     *slog.Logger
}

func (c *Controller) ListProducts(ctx context.Context) ([]Product, error) {
	return c.Catalog.Products(ctx)
}

// CreateOrder prices the cart, opens a remote payment order and records it
// as pending under the remote id. The ledger is untouched if any step fails.
func (c *Controller) CreateOrder(ctx context.Context, items []CartItem, customer map[string]any) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("%w: cart is empty", apperr.ErrValidation)
	}
	for i, it := range items {
		if it.ProductID == "" {
			return "", fmt.Errorf("%w: item %d has no product id", apperr.ErrValidation, i)
		}
	}

	catalog, err := c.Catalog.Products(ctx)
	if err != nil {
		return "", fmt.Errorf("load catalog: %w", err)
	}
	total := ComputeTotal(items, catalog)

	remoteID, err := c.Gateway.CreateOrder(ctx, total)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	o := Order{
		ID:        remoteID,
		Items:     items,
		Total:     total,
		Status:    StatusPending,
		Customer:  customerOrEmpty(customer),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Ledger.Append(ctx, o); err != nil {
		return "", fmt.Errorf("append order %s: %w", remoteID, err)
	}
	c.logger().Info("order created", "order_id", o.ID, "total", o.Total.StringFixed(2), "items", len(o.Items))

	c.cacheStatus(ctx, o.ID, o.Status)
	c.publish(c.CreatedEvents, o.ID, EventOrderCreated, OrderCreatedPayload{
		OrderID: o.ID, Items: o.Items, Total: o.Total,
	})
	return o.ID, nil
}

// CaptureOrder finalizes the remote payment, then marks the local order paid
// and forwards it for fulfillment. The capture result is returned even when
// the order is unknown locally. Repeated calls capture remotely again.
func (c *Controller) CaptureOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", apperr.ErrValidation)
	}

	result, err := c.Gateway.CaptureOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	o, found, err := c.Ledger.MarkPaid(ctx, orderID)
	if err != nil {
		c.logger().Error("captured payment but ledger update failed", "order_id", orderID, "err", err)
		return nil, fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	if !found {
		c.logger().Warn("captured payment for unknown order", "order_id", orderID)
		return result, nil
	}

	c.cacheStatus(ctx, o.ID, o.Status)
	c.publish(c.PaidEvents, o.ID, EventOrderPaid, OrderPaidPayload{
		OrderID: o.ID, Items: o.Items, Total: o.Total, Customer: o.Customer,
	})

	// the buyer already paid; a disconnect must not abort the hand-off
	res := c.Forwarder.Forward(context.WithoutCancel(ctx), o)
	c.logFulfillment(o.ID, res)
	c.publish(c.FulfillmentEvents, o.ID, EventFulfillmentResult, FulfillmentResultPayload{
		OrderID: o.ID, Status: res.Status, Message: res.Message,
	})

	return result, nil
}

// GetOrder returns the stored order. A cached status is used only when it
// is ahead of the ledger, so a stale cache entry never moves an order back.
func (c *Controller) GetOrder(ctx context.Context, orderID string) (Order, error) {
	o, err := c.Ledger.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if c.Cache != nil {
		s, ok, err := c.Cache.GetStatus(ctx, orderID)
		if err != nil {
			c.logger().Warn("status cache read failed", "order_id", orderID, "err", err)
		} else if ok && CanTransition(o.Status, s) {
			o.Status = s
		}
	}
	return o, nil
}

func (c *Controller) logFulfillment(orderID string, res FulfillmentResult) {
	switch res.Status {
	case FulfillmentForwarded:
		c.logger().Info("order forwarded to supplier", "order_id", orderID)
	case FulfillmentSkipped:
		c.logger().Warn("order forwarding skipped", "order_id", orderID, "reason", res.Message)
	default:
		c.logger().Error("order forwarding failed", "order_id", orderID, "status", res.Status, "reason", res.Message)
	}
}

func (c *Controller) cacheStatus(ctx context.Context, orderID string, s Status) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.SetStatus(ctx, orderID, s); err != nil {
		c.logger().Warn("status cache write failed", "order_id", orderID, "err", err)
		if err := c.Cache.DeleteStatus(ctx, orderID); err != nil {
			c.logger().Warn("status cache evict failed", "order_id", orderID, "err", err)
		}
	}
}

func (c *Controller) publish(p EventPublisher, orderID, eventType string, payload any) {
	if p == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger().Error("encode event payload", "event_type", eventType, "err", err)
		return
	}
	env, err := json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.Service,
		CorrelationID: orderID,
		Payload:       body,
	})
	if err != nil {
		c.logger().Error("encode event envelope", "event_type", eventType, "err", err)
		return
	}
	p.PublishEvent(PartitionKey(orderID), eventType, env)
}

func (c *Controller) logger() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}
