package entity

import "github.com/uptrace/bun"

// ShippingZone groups destination countries under a shared base cost.
// Countries may hold ISO codes or full names; older rows used names.
type ShippingZone struct {
	bun.BaseModel `bun:"table:shipping_zones"`

	ID           int64    `bun:",pk,autoincrement" json:"id"`
	Name         string   `bun:"name,notnull" json:"name"`
	Countries    []string `bun:"countries,array" json:"countries"`
	ShippingCost float64  `bun:"shipping_cost,notnull" json:"shippingCost"`
	IsDefault    bool     `bun:"is_default" json:"isDefault"`
	IsActive     bool     `bun:"is_active" json:"isActive"`
	SortOrder    int      `bun:"sort_order" json:"sortOrder"`
}
