package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ariefcatur/go-dropship-orders/internal/orders"
	"github.com/ariefcatur/go-dropship-orders/internal/supplier"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	products []supplier.RemoteProduct
	err      error
	calls    int
}

func (f *fakeSource) Products(context.Context) ([]supplier.RemoteProduct, error) {
	f.calls++
	return f.products, f.err
}

type memDedup struct{ seen map[string]bool }

func (d *memDedup) FirstSeen(_ context.Context, id string) (bool, error) {
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func newCatalog(t *testing.T, body string) *orders.FileCatalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return orders.NewFileCatalog(path)
}

func byID(t *testing.T, c *orders.FileCatalog) map[string]orders.Product {
	t.Helper()
	ps, err := c.Products(context.Background())
	require.NoError(t, err)
	out := make(map[string]orders.Product, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	return out
}

func newService(cat *orders.FileCatalog, src ProductSource) *Service {
	return &Service{
		Catalog:  cat,
		Supplier: src,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSync(t *testing.T) {
	cat := newCatalog(t, `[{"id":"a","price":10},{"id":"b","price":5.5},{"id":"c","price":1}]`)
	src := &fakeSource{products: []supplier.RemoteProduct{
		{ID: "a", Inventory: 12, Price: decimal.RequireFromString("11.25")},
		{ID: "b", Inventory: 0},
		{ID: "x", Inventory: 99, Price: decimal.NewFromInt(1)},
	}}

	require.NoError(t, newService(cat, src).Sync(context.Background()))

	got := byID(t, cat)
	require.NotNil(t, got["a"].Inventory)
	assert.Equal(t, 12, *got["a"].Inventory)
	assert.Equal(t, "11.25", got["a"].Price.String())

	require.NotNil(t, got["b"].Inventory)
	assert.Equal(t, 0, *got["b"].Inventory)
	assert.Equal(t, "5.5", got["b"].Price.String(), "zero remote price keeps local price")

	assert.Nil(t, got["c"].Inventory)
	assert.NotContains(t, got, "x")
}

func TestSync_MissingCredentialsSkips(t *testing.T) {
	body := `[{"id":"a","price":10}]`
	cat := newCatalog(t, body)

	err := newService(cat, &fakeSource{err: supplier.ErrNoCredentials}).Sync(context.Background())
	require.NoError(t, err)

	b, err := os.ReadFile(cat.Path)
	require.NoError(t, err)
	assert.Equal(t, body, string(b))
}

func TestSync_RemoteError(t *testing.T) {
	cat := newCatalog(t, `[]`)
	err := newService(cat, &fakeSource{err: errors.New("status 500")}).Sync(context.Background())
	assert.Error(t, err)
}

func TestRun_ZeroIntervalRunsOnce(t *testing.T) {
	src := &fakeSource{}
	svc := newService(newCatalog(t, `[]`), src)

	require.NoError(t, svc.Run(context.Background(), 0))
	assert.Equal(t, 1, src.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	src := &fakeSource{}
	svc := newService(newCatalog(t, `[]`), src)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, svc.Run(ctx, time.Hour))
	assert.Equal(t, 1, src.calls)
}

func paidMessage(t *testing.T, eventID, eventType string, items []orders.CartItem) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(orders.OrderPaidPayload{OrderID: "PP-1", Items: items, Total: decimal.NewFromInt(1)})
	require.NoError(t, err)
	env, err := json.Marshal(orders.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload:      payload,
	})
	require.NoError(t, err)
	return kafkago.Message{Key: []byte("PP-1"), Value: env}
}

func TestHandleOrderPaid(t *testing.T) {
	cat := newCatalog(t, `[{"id":"a","inventory":5},{"id":"b","inventory":1},{"id":"c"}]`)
	svc := newService(cat, &fakeSource{})
	svc.Dedup = &memDedup{seen: map[string]bool{}}
	ctx := context.Background()

	msg := paidMessage(t, "evt-1", orders.EventOrderPaid, []orders.CartItem{
		{ProductID: "a", Quantity: 2},
		{ProductID: "a"},
		{ProductID: "b", Quantity: 3},
		{ProductID: "c", Quantity: 1},
	})
	require.NoError(t, svc.HandleOrderPaid(ctx, msg))

	got := byID(t, cat)
	assert.Equal(t, 2, *got["a"].Inventory)
	assert.Equal(t, 0, *got["b"].Inventory, "inventory never goes negative")
	assert.Nil(t, got["c"].Inventory, "untracked products stay untracked")

	// redelivery of the same event is ignored
	require.NoError(t, svc.HandleOrderPaid(ctx, msg))
	assert.Equal(t, 2, *byID(t, cat)["a"].Inventory)
}

func TestHandleOrderPaid_IgnoresOtherEvents(t *testing.T) {
	body := `[{"id":"a","inventory":5}]`
	cat := newCatalog(t, body)
	svc := newService(cat, &fakeSource{})

	msg := paidMessage(t, "evt-1", orders.EventOrderCreated, []orders.CartItem{{ProductID: "a", Quantity: 1}})
	require.NoError(t, svc.HandleOrderPaid(context.Background(), msg))

	b, err := os.ReadFile(cat.Path)
	require.NoError(t, err)
	assert.Equal(t, body, string(b))
}

func TestHandleOrderPaid_BadMessage(t *testing.T) {
	svc := newService(newCatalog(t, `[]`), &fakeSource{})
	err := svc.HandleOrderPaid(context.Background(), kafkago.Message{Value: []byte("not json")})
	assert.Error(t, err)
}
