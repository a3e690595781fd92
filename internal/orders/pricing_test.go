package orders

import (
	"fmt"
	"slices"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestComputeTotal(t *testing.T) {
	catalog := []Product{
		{ID: "a", Price: decimal.RequireFromString("10.00")},
		{ID: "b", Price: decimal.RequireFromString("5.50")},
	}

	tests := []struct {
		name  string
		items []CartItem
		want  string
	}{
		{
			name:  "known items",
			items: []CartItem{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}},
			want:  "25.50",
		},
		{
			name:  "unknown only",
			items: []CartItem{{ProductID: "z", Quantity: 3}},
			want:  "0.00",
		},
		{
			name:  "unknown skipped",
			items: []CartItem{{ProductID: "a", Quantity: 1}, {ProductID: "z", Quantity: 9}},
			want:  "10.00",
		},
		{
			name:  "missing quantity counts as one",
			items: []CartItem{{ProductID: "b"}, {ProductID: "b", Quantity: -4}},
			want:  "11.00",
		},
		{
			name: "empty cart",
			want: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotal(tt.items, catalog)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestComputeTotal_NoRounding(t *testing.T) {
	catalog := []Product{{ID: "p", Price: decimal.RequireFromString("0.333")}}

	got := ComputeTotal([]CartItem{{ProductID: "p", Quantity: 3}}, catalog)

	assert.True(t, got.Equal(decimal.RequireFromString("0.999")), "got %s", got)
}

func TestComputeTotal_RandomCatalog(t *testing.T) {
	faker := gofakeit.New(42)

	for range 50 {
		n := faker.IntRange(1, 20)
		catalog := make([]Product, 0, n)
		items := make([]CartItem, 0, n)
		want := decimal.Zero
		for i := 0; i < n; i++ {
			p := Product{
				ID:    faker.UUID(),
				Price: decimal.NewFromFloat(faker.Price(1, 500)).Round(2),
			}
			catalog = append(catalog, p)
			qty := faker.IntRange(1, 5)
			items = append(items, CartItem{ProductID: p.ID, Quantity: qty})
			want = want.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
		}
		items = append(items, CartItem{ProductID: "unknown-" + faker.UUID(), Quantity: 7})

		got := ComputeTotal(items, catalog)
		assert.True(t, want.Equal(got), "want %s got %s", want, got)
	}
}

func TestComputeTotal_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		catalog := make([]Product, n)
		for i := range catalog {
			cents := rapid.IntRange(0, 100000).Draw(rt, "cents")
			catalog[i] = Product{ID: fmt.Sprintf("p%d", i), Price: decimal.New(int64(cents), -2)}
		}
		items := rapid.SliceOfN(rapid.Custom(func(rt *rapid.T) CartItem {
			return CartItem{
				ProductID: fmt.Sprintf("p%d", rapid.IntRange(0, n+2).Draw(rt, "idx")),
				Quantity:  rapid.IntRange(-1, 5).Draw(rt, "qty"),
			}
		}), 0, 8).Draw(rt, "items")

		total := ComputeTotal(items, catalog)
		if total.IsNegative() {
			rt.Fatalf("negative total %s", total)
		}
		if !total.Round(2).Equal(total) {
			rt.Fatalf("total %s has more than two decimals", total)
		}

		reversed := slices.Clone(items)
		slices.Reverse(reversed)
		if got := ComputeTotal(reversed, catalog); !got.Equal(total) {
			rt.Fatalf("order dependent: %s != %s", got, total)
		}

		withUnknown := append(slices.Clone(items), CartItem{ProductID: "missing", Quantity: 3})
		if got := ComputeTotal(withUnknown, catalog); !got.Equal(total) {
			rt.Fatalf("unknown item changed total: %s != %s", got, total)
		}
	})
}
