package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/checkout/internal/database"
	"github.com/Additional-Code/checkout/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/checkout/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists the order together with its items in one transaction.
// Either the whole aggregate lands or nothing does; a half-written order
// for a captured payment is the one state this layer must never produce.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.number", order.Number)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		for _, item := range order.Items {
			item.OrderID = order.ID
		}
		_, err := tx.NewInsert().Model(&order.Items).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// ExistsByNumber reports whether an order number is already taken. The
// writer connection is used deliberately: the generator's collision check
// must not race a lagging read replica.
func (r *Repository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ExistsByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	exists, err := r.writer.NewSelect().Model((*entity.Order)(nil)).Where("number = ?", number).Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exists failed")
		return false, err
	}
	return exists, nil
}

// GetByNumber fetches an order with its items by the client-facing number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).
		Relation("Items").
		Where("\"order\".number = ?", number).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// FindByTransactionID looks up an order by the processor transaction id
// recorded in its billing metadata. Used as the pre-insert dedup check for
// repeated captures of the same payment.
func (r *Repository) FindByTransactionID(ctx context.Context, txnID string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.FindByTransactionID")
	defer span.End()

	order := new(entity.Order)
	err := r.writer.NewSelect().Model(order).
		Where("billing_address->>'transactionId' = ?", txnID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// UpdateAddresses rewrites only the address columns of an order. Callers
// own the merge semantics; this just persists the result.
func (r *Repository) UpdateAddresses(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateAddresses", trace.WithAttributes(attribute.String("order.number", order.Number)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model(order).
		Column("shipping_address", "billing_address", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
