package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-dropship-orders/internal/apperr"
	"github.com/ariefcatur/go-dropship-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	ListProducts(ctx context.Context) ([]orders.Product, error)
	CreateOrder(ctx context.Context, items []orders.CartItem, customer map[string]any) (string, error)
	CaptureOrder(ctx context.Context, orderID string) (json.RawMessage, error)
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
}

// PublicConfig is the checkout configuration safe to expose to browsers.
type PublicConfig struct {
	PayPalClientID string `json:"paypal_client_id"`
	Currency       string `json:"currency"`
}

type OrdersHandler struct {
	Orders OrderService
	Public PublicConfig
	Log    *slog.Logger
}

type CreateOrderReq struct {
	Items    []orders.CartItem `json:"items"`
	Customer map[string]any    `json:"customer,omitempty"`
}

type CreateOrderResp struct {
	OrderID string `json:"orderId"`
}

type CaptureOrderResp struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/config.json", h.publicConfig)
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Post("/orders", h.createOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/capture", h.captureOrder)
		r.NotFound(apiNotFound)
		r.MethodNotAllowed(apiNotFound)
	})
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *OrdersHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	if apperr.Internal(err) {
		h.logger().Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = "internal error"
	} else {
		h.logger().Warn("request rejected", "method", r.Method, "path", r.URL.Path, "kind", apperr.Kind(err), "err", err)
	}
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": msg})
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Orders.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}

	orderID, err := h.Orders.CreateOrder(r.Context(), req.Items, req.Customer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateOrderResp{OrderID: orderID})
}

func (h *OrdersHandler) captureOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.Orders.CaptureOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CaptureOrderResp{Status: "captured", Result: result})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) publicConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Public)
}

func (h *OrdersHandler) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}
