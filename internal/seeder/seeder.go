package seeder

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/database"
	"github.com/Additional-Code/checkout/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// ShippingZones seeds the default zone table if rows are missing. Costs here
// are starting points; operators tune them through whatever admin surface
// fronts the zones table.
func (s *Seeder) ShippingZones(ctx context.Context) error {
	samples := []entity.ShippingZone{
		{
			Name:         "North America",
			Countries:    []string{"US", "CA", "MX"},
			ShippingCost: 30,
			IsActive:     true,
			SortOrder:    1,
		},
		{
			Name:         "Europe",
			Countries:    []string{"GB", "DE", "FR", "IT", "ES", "NL", "SE", "PL"},
			ShippingCost: 35,
			IsActive:     true,
			SortOrder:    2,
		},
		{
			Name:         "Asia Pacific",
			Countries:    []string{"JP", "KR", "SG", "TH", "MY", "ID", "PH", "AU", "NZ"},
			ShippingCost: 20,
			IsActive:     true,
			SortOrder:    3,
		},
		{
			Name:         "Rest of World",
			Countries:    []string{},
			ShippingCost: 45,
			IsDefault:    true,
			IsActive:     true,
			SortOrder:    100,
		},
	}

	for _, sample := range samples {
		zone := sample
		_, err := s.db.NewInsert().Model(&zone).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded shipping zones", zap.Int("count", len(samples)))
	return nil
}

// Products seeds a handful of catalog rows so the confirmation mail has
// something to render locally.
func (s *Seeder) Products(ctx context.Context) error {
	samples := []entity.Product{
		{ID: "sku-coffee-beans", Name: "Single Origin Coffee Beans 500g", SKU: "CFB-500", Price: 18.50},
		{ID: "sku-pour-over", Name: "Ceramic Pour Over Dripper", SKU: "POD-001", Price: 24.00},
		{ID: "sku-grinder", Name: "Hand Burr Grinder", SKU: "GRD-220", Price: 62.00},
		{ID: "sku-kettle", Name: "Gooseneck Kettle 1L", SKU: "KTL-100", Price: 79.00},
	}

	for _, sample := range samples {
		product := sample
		_, err := s.db.NewInsert().Model(&product).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded products", zap.Int("count", len(samples)))
	return nil
}
