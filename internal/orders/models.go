package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// catalog and ledger documents keep prices as plain JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type Review struct {
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

type Product struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Description  string          `json:"description"`
	ShippingTime string          `json:"shippingTime"`
	Rating       float64         `json:"rating"`
	Reviews      []Review        `json:"reviews"`
	Inventory    *int            `json:"inventory,omitempty"` // set only by inventory sync
}

// CartItem is one line of a client-held cart.
type CartItem struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

// Qty returns the effective quantity; missing or non-positive counts as one.
func (c CartItem) Qty() int {
	if c.Quantity <= 0 {
		return 1
	}
	return c.Quantity
}

type Order struct {
	ID        string          `json:"id"` // payment gateway order id
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"` // see status.go
	Customer  map[string]any  `json:"customer"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
