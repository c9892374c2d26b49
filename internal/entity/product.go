package entity

import "github.com/uptrace/bun"

// Product carries the catalog fields the checkout flow reads: pricing stays
// snapshotted on order items, so this is only consulted to enrich the
// confirmation mail.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID       string  `bun:",pk" json:"id"`
	Name     string  `bun:"name,notnull" json:"name"`
	SKU      string  `bun:"sku" json:"sku"`
	Price    float64 `bun:"price,notnull" json:"price"`
	ImageURL string  `bun:"image_url" json:"imageUrl,omitempty"`
}
