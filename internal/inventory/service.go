package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	kafkax "github.com/ariefcatur/go-dropship-orders/internal/kafka"
	"github.com/ariefcatur/go-dropship-orders/internal/orders"
	"github.com/ariefcatur/go-dropship-orders/internal/supplier"
	kafkago "github.com/segmentio/kafka-go"
)

type CatalogUpdater interface {
	Update(ctx context.Context, fn func([]orders.Product) bool) error
}

type ProductSource interface {
	Products(ctx context.Context) ([]supplier.RemoteProduct, error)
}

type Deduper interface {
	FirstSeen(ctx context.Context, id string) (bool, error)
}

// Service keeps the local catalog's inventory and prices in line with the
// supplier. It is the only writer of those fields.
type Service struct {
	Catalog  CatalogUpdater
	Supplier ProductSource
	Dedup    Deduper // optional
	Log      *slog.Logger
}

// Sync pulls supplier listings and copies inventory and price onto local
// products with the same id. Missing credentials skip the run.
func (s *Service) Sync(ctx context.Context) error {
	remote, err := s.Supplier.Products(ctx)
	if errors.Is(err, supplier.ErrNoCredentials) {
		s.logger().Warn("supplier credentials are missing, inventory sync skipped")
		return nil
	}
	if err != nil {
		return err
	}

	byID := make(map[string]supplier.RemoteProduct, len(remote))
	for _, r := range remote {
		byID[r.ID] = r
	}

	updated := 0
	err = s.Catalog.Update(ctx, func(products []orders.Product) bool {
		for i := range products {
			r, ok := byID[products[i].ID]
			if !ok {
				continue
			}
			inv := r.Inventory
			products[i].Inventory = &inv
			if r.Price.IsPositive() {
				products[i].Price = r.Price
			}
			updated++
		}
		return updated > 0
	})
	if err != nil {
		return err
	}
	s.logger().Info("inventory sync completed", "remote", len(remote), "updated", updated)
	return nil
}

// Run syncs once, then every interval until ctx ends. A zero interval
// returns after the first sync.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	for {
		s.logger().Info("starting inventory sync")
		if err := s.Sync(ctx); err != nil {
			s.logger().Error("inventory sync failed", "err", err)
		}
		if interval <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// HandleOrderPaid is the consumer handler for order.paid: sold quantities
// are taken off the local inventory of tracked products.
func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPaid {
		return nil
	}

	if s.Dedup != nil {
		first, err := s.Dedup.FirstSeen(ctx, env.EventID)
		if err != nil {
			s.logger().Warn("dedup check failed", "event_id", env.EventID, "err", err)
		} else if !first {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
	if err != nil {
		return err
	}

	sold := make(map[string]int, len(p.Items))
	for _, it := range p.Items {
		sold[it.ProductID] += it.Qty()
	}
	return s.Catalog.Update(ctx, func(products []orders.Product) bool {
		changed := false
		for i := range products {
			q, ok := sold[products[i].ID]
			if !ok || products[i].Inventory == nil {
				continue
			}
			left := max(*products[i].Inventory-q, 0)
			products[i].Inventory = &left
			changed = true
		}
		return changed
	})
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
