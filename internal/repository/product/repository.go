package product

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"

	"github.com/Additional-Code/checkout/internal/database"
	"github.com/Additional-Code/checkout/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/checkout/repository/product")

// Module provides the product repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository reads catalog rows. The checkout flow only needs names, SKUs,
// and images to enrich the confirmation mail; pricing stays snapshotted on
// order items.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// FindByIDs fetches the products with the given ids; missing ids are
// silently absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, span := repoTracer.Start(ctx, "ProductRepository.FindByIDs")
	defer span.End()

	var products []*entity.Product
	err := r.reader.NewSelect().Model(&products).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return products, nil
}
