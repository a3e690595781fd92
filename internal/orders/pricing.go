package orders

import "github.com/shopspring/decimal"

// ComputeTotal sums price * quantity over the cart. Items whose product id is
// not in the catalog are skipped, so a stale cart never aborts checkout.
func ComputeTotal(items []CartItem, catalog []Product) decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(catalog))
	for _, p := range catalog {
		prices[p.ID] = p.Price
	}

	total := decimal.Zero
	for _, it := range items {
		price, ok := prices[it.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Qty()))))
	}
	return total
}
