package shippingzone

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"

	"github.com/Additional-Code/checkout/internal/database"
	"github.com/Additional-Code/checkout/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/checkout/repository/shippingzone")

// Module provides the shipping zone repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository reads the externally managed shipping zone configuration.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// ListActive returns active zones ordered the way admins arranged them.
func (r *Repository) ListActive(ctx context.Context) ([]*entity.ShippingZone, error) {
	ctx, span := repoTracer.Start(ctx, "ShippingZoneRepository.ListActive")
	defer span.End()

	var zones []*entity.ShippingZone
	err := r.reader.NewSelect().Model(&zones).
		Where("is_active = TRUE").
		Order("sort_order ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return zones, nil
}
