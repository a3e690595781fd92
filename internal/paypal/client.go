// Package paypal talks to the PayPal Orders v2 REST API.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ariefcatur/go-dropship-orders/internal/apperr"
	"github.com/ariefcatur/go-dropship-orders/internal/config"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	LiveBaseURL    = "https://api-m.paypal.com"
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
)

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	currency     currency.Unit
	http         *http.Client
}

func New(cfg config.PayPal, httpClient *http.Client) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = SandboxBaseURL
		if cfg.Environment == "live" {
			base = LiveBaseURL
		}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:      strings.TrimRight(base, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		currency:     cfg.Currency,
		http:         httpClient,
	}
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Authenticate exchanges the client credentials for a bearer token. A new
// token is requested for every operation.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", apperr.ErrAuth, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: PayPal token request failed: %s", apperr.ErrAuth, strings.TrimSpace(string(body)))
	}
	var tr tokenResp
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%w: decode token: %v", apperr.ErrAuth, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", apperr.ErrAuth)
	}
	return tr.AccessToken, nil
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount amount `json:"amount"`
}

type createOrderReq struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type createOrderResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateOrder opens a CAPTURE-intent order for total and returns its id.
func (c *Client) CreateOrder(ctx context.Context, total decimal.Decimal) (string, error) {
	payload, err := json.Marshal(createOrderReq{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: amount{CurrencyCode: c.currency.String(), Value: total.StringFixed(2)},
		}},
	})
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, "/v2/checkout/orders", payload, "create order")
	if err != nil {
		return "", err
	}
	var out createOrderResp
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode create order: %v", apperr.ErrGateway, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: create order returned no id", apperr.ErrGateway)
	}
	return out.ID, nil
}

// CaptureOrder finalizes an approved order and returns PayPal's response as is.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	body, err := c.do(ctx, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture", nil, "capture order")
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: capture returned invalid json", apperr.ErrGateway)
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(ctx context.Context, path string, payload []byte, op string) ([]byte, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrGateway, op, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: PayPal %s failed: %s", apperr.ErrGateway, op, strings.TrimSpace(string(body)))
	}
	return body, nil
}
