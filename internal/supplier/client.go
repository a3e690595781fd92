// Package supplier forwards paid orders to DSers and reads supplier stock.
package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-dropship-orders/internal/config"
	"github.com/ariefcatur/go-dropship-orders/internal/orders"
	"github.com/shopspring/decimal"
)

var ErrNoCredentials = errors.New("supplier credentials missing")

type Client struct {
	cfg  config.Supplier
	http *http.Client
	log  *slog.Logger
}

func New(cfg config.Supplier, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient, log: log}
}

// Forward sends a paid order to the supplier. Failures are reported in the
// result and logged; they are never returned as errors.
func (c *Client) Forward(ctx context.Context, o orders.Order) orders.FulfillmentResult {
	if !c.cfg.HasCredentials() {
		c.log.Warn("supplier credentials are missing, cannot forward order", "order_id", o.ID)
		return orders.FulfillmentResult{Status: orders.FulfillmentSkipped, Message: "DSers credentials missing"}
	}

	payload, err := json.Marshal(o)
	if err != nil {
		return c.failed(o.ID, fmt.Errorf("encode order: %w", err))
	}
	body, err := c.do(ctx, http.MethodPost, "/createOrder", payload)
	if err != nil {
		return c.failed(o.ID, fmt.Errorf("DSers order forwarding failed: %w", err))
	}

	res := orders.FulfillmentResult{Status: orders.FulfillmentForwarded}
	if json.Valid(body) {
		res.Response = json.RawMessage(body)
	}
	return res
}

func (c *Client) failed(orderID string, err error) orders.FulfillmentResult {
	c.log.Error("forward order", "order_id", orderID, "err", err)
	return orders.FulfillmentResult{Status: orders.FulfillmentFailed, Message: err.Error()}
}

// RemoteProduct is the supplier view of a listing.
type RemoteProduct struct {
	ID        string          `json:"id"`
	Inventory int             `json:"inventory"`
	Price     decimal.Decimal `json:"price"`
}

type productsResp struct {
	Products []RemoteProduct `json:"products"`
}

// Products lists current supplier stock and pricing.
func (c *Client) Products(ctx context.Context) ([]RemoteProduct, error) {
	if !c.cfg.HasCredentials() {
		return nil, ErrNoCredentials
	}
	body, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, fmt.Errorf("DSers inventory sync failed: %w", err)
	}
	var out productsResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out.Products, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("X-API-SECRET", c.cfg.APISecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
