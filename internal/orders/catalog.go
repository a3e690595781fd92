package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	defaultTitle        = "Untitled Product"
	defaultDescription  = "No description available."
	defaultShippingTime = "7–15 days"
	defaultImage        = "/img/placeholder.jpg"
	defaultRating       = 4.6
)

// rawProduct mirrors the on-disk shape, where any field may be absent.
type rawProduct struct {
	ID           string           `json:"id"`
	Title        *string          `json:"title"`
	Price        *decimal.Decimal `json:"price"`
	Image        *string          `json:"image"`
	Description  *string          `json:"description"`
	ShippingTime *string          `json:"shippingTime"`
	Rating       *float64         `json:"rating"`
	Reviews      []Review         `json:"reviews"`
	Inventory    *int             `json:"inventory"`
}

// normalizeProducts fills defaults so every returned product carries the
// fields the storefront renders. Entries without an id are dropped.
func normalizeProducts(raw []rawProduct) []Product {
	out := make([]Product, 0, len(raw))
	for _, r := range raw {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			continue
		}
		p := Product{
			ID:           id,
			Title:        orDefault(r.Title, defaultTitle),
			Price:        decimal.Zero,
			Image:        orDefault(r.Image, defaultImage),
			Description:  orDefault(r.Description, defaultDescription),
			ShippingTime: orDefault(r.ShippingTime, defaultShippingTime),
			Rating:       defaultRating,
			Reviews:      r.Reviews,
			Inventory:    r.Inventory,
		}
		if r.Price != nil && r.Price.IsPositive() {
			p.Price = *r.Price
		}
		if r.Rating != nil {
			p.Rating = min(max(*r.Rating, 0), 5)
		}
		if p.Reviews == nil {
			p.Reviews = []Review{}
		}
		out = append(out, p)
	}
	return out
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

// FileCatalog reads the product list from a JSON file on every call.
type FileCatalog struct {
	Path string

	mu sync.Mutex // serializes Update
}

func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{Path: path}
}

func (c *FileCatalog) Products(ctx context.Context) ([]Product, error) {
	raw, err := c.readRaw()
	if err != nil {
		return nil, err
	}
	return normalizeProducts(raw), nil
}

// Update hands fn the normalized products and persists the price and
// inventory changes it makes. Only those two keys of the matching entries
// are rewritten; every other field, and entries without an id, stay as
// stored. Used by the inventory sync process only.
func (c *FileCatalog) Update(ctx context.Context, fn func([]Product) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var docs []map[string]json.RawMessage
	if err := json.Unmarshal(b, &docs); err != nil {
		return fmt.Errorf("decode catalog %s: %w", c.Path, err)
	}
	raw, err := decodeRaw(b, c.Path)
	if err != nil {
		return err
	}

	type stock struct {
		price     decimal.Decimal
		inventory *int
	}
	var (
		products []Product
		at       []int
		before   []stock
	)
	for i := range raw {
		ps := normalizeProducts(raw[i : i+1])
		if len(ps) == 0 {
			continue
		}
		products = append(products, ps[0])
		at = append(at, i)
		before = append(before, stock{price: ps[0].Price, inventory: copyInt(ps[0].Inventory)})
	}
	if !fn(products) {
		return nil
	}

	changed := false
	for j, p := range products {
		doc := docs[at[j]]
		if !p.Price.Equal(before[j].price) {
			doc["price"] = json.RawMessage(p.Price.String())
			changed = true
		}
		if !sameInt(p.Inventory, before[j].inventory) {
			if p.Inventory == nil {
				delete(doc, "inventory")
			} else {
				doc["inventory"] = json.RawMessage(strconv.Itoa(*p.Inventory))
			}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return writeJSONFile(c.Path, docs)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (c *FileCatalog) readRaw() ([]rawProduct, error) {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return decodeRaw(b, c.Path)
}

func decodeRaw(b []byte, path string) ([]rawProduct, error) {
	var raw []rawProduct
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return raw, nil
}

// writeJSONFile replaces path with the indented encoding of v via a temp
// file in the same directory, so readers never observe a partial document.
func writeJSONFile(path string, v any) (err error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
