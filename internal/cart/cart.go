// Package cart maintains per-user carts with idempotent composite-keyed
// line items, JSON file persistence and source-aware item snapshots.
package cart

import (
	"time"

	"github.com/dariamatveeva/beautycare-backend/pkg/money"
)

// MaxQuantity caps a single line's quantity.
const MaxQuantity = 99

// Item is one cart line: a frozen snapshot of the product at add time.
type Item struct {
	ProductID   string            `json:"product_id"`
	VariantID   string            `json:"variant_id,omitempty"`
	VariantName string            `json:"variant_name,omitempty"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand,omitempty"`
	PriceMinor  int64             `json:"price_minor"`
	Currency    string            `json:"currency"`
	Link        string            `json:"link,omitempty"`
	RefLink     string            `json:"ref_link,omitempty"`
	Source      string            `json:"source,omitempty"`
	Qty         int               `json:"qty"`
	Meta        map[string]string `json:"meta,omitempty"`
	AddedAt     time.Time         `json:"added_at,omitempty"`
}

// Key returns the composite key identifying this line within a cart.
func (i *Item) Key() string {
	return CompositeKey(i.ProductID, i.VariantID)
}

// CompositeKey builds the `(product-id, variant-id-or-empty)` line key.
func CompositeKey(productID, variantID string) string {
	return productID + ":" + variantID
}

// Subtotal returns the line total in minor units.
func (i *Item) Subtotal() int64 {
	return i.PriceMinor * int64(i.Qty)
}

// Cart aggregates a user's lines plus derived totals. Derived fields are
// recomputed on every mutation.
type Cart struct {
	UserID        int64     `json:"user_id"`
	Items         []Item    `json:"items"`
	SubtotalMinor int64     `json:"subtotal_minor"`
	Currency      string    `json:"currency"`
	NeedsReview   bool      `json:"needs_review"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// clone returns a copy whose line slice can be mutated without touching
// the original. Mutations work on a clone and commit it only after the
// save succeeds.
func (c *Cart) clone() *Cart {
	dup := *c
	dup.Items = append([]Item(nil), c.Items...)
	return &dup
}

// find returns the index of the line with the given composite key, or -1.
func (c *Cart) find(key string) int {
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// recompute refreshes subtotal, primary currency and the multi-currency
// review flag. Primary currency is the first inserted line's currency.
func (c *Cart) recompute(now time.Time) {
	c.SubtotalMinor = 0
	c.Currency = money.PrimaryCurrency
	seen := make(map[string]struct{}, 2)
	for i := range c.Items {
		c.SubtotalMinor += c.Items[i].Subtotal()
		if c.Items[i].Currency != "" {
			seen[c.Items[i].Currency] = struct{}{}
		}
	}
	if len(c.Items) > 0 && c.Items[0].Currency != "" {
		c.Currency = c.Items[0].Currency
	}
	c.NeedsReview = len(seen) > 1
	c.UpdatedAt = now
}

// TotalCount sums quantities across lines.
func (c *Cart) TotalCount() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Qty
	}
	return total
}
