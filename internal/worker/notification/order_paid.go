package notification

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/config"
	"github.com/Additional-Code/checkout/internal/entity"
	"github.com/Additional-Code/checkout/internal/messaging"
	"github.com/Additional-Code/checkout/internal/notification"
	productrepo "github.com/Additional-Code/checkout/internal/repository/product"
	checkoutsvc "github.com/Additional-Code/checkout/internal/service/checkout"
	"github.com/Additional-Code/checkout/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/checkout/worker/notification")

// Module registers the order confirmation worker handler.
var Module = fx.Module("worker_notification",
	fx.Provide(
		fx.Annotate(
			NewOrderPaidHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Catalog is the slice of the product repository the mail needs.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []string) ([]*entity.Product, error)
}

// Params defines dependencies for the order paid handler.
type Params struct {
	fx.In

	Products *productrepo.Repository
	Mailer   notification.Mailer
	Logger   *zap.Logger
	Config   config.Config
}

// NewOrderPaidHandler consumes order paid events and sends the confirmation
// mail. Mail failures are logged and swallowed: the order already exists and
// a retry storm against the SMTP relay helps nobody.
func NewOrderPaidHandler(p Params) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   p.Config.Messaging.Kafka.Topic,
		Handler: orderPaidHandler(p.Products, p.Mailer, p.Logger),
	}
}

func orderPaidHandler(catalog Catalog, mailer notification.Mailer, logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.notification.orderPaid", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event checkoutsvc.OrderPaidEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order paid event", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("order.number", event.OrderNumber))

		summary := buildSummary(ctx, catalog, event, logger)
		if err := mailer.SendOrderConfirmation(ctx, summary); err != nil {
			logger.Error("order confirmation mail failed",
				zap.String("order", event.OrderNumber),
				zap.String("email", event.CustomerEmail),
				zap.Error(err))
			span.RecordError(err)
			return nil
		}

		logger.Info("order confirmation sent",
			zap.String("order", event.OrderNumber),
			zap.String("email", event.CustomerEmail))
		return nil
	}
}

// buildSummary enriches event lines with catalog names and images. A catalog
// miss falls back to the product id so the mail still goes out.
func buildSummary(ctx context.Context, catalog Catalog, event checkoutsvc.OrderPaidEvent, logger *zap.Logger) notification.OrderSummary {
	ids := make([]string, 0, len(event.Items))
	for _, item := range event.Items {
		ids = append(ids, item.ProductID)
	}

	byID := map[string]*entity.Product{}
	if catalog != nil {
		products, err := catalog.FindByIDs(ctx, ids)
		if err != nil {
			logger.Warn("catalog lookup failed; sending mail without product details",
				zap.String("order", event.OrderNumber), zap.Error(err))
		}
		for _, p := range products {
			byID[p.ID] = p
		}
	}

	summary := notification.OrderSummary{
		OrderNumber:   event.OrderNumber,
		CustomerName:  event.CustomerName,
		CustomerEmail: event.CustomerEmail,
		Subtotal:      event.Subtotal,
		Shipping:      event.Shipping,
		Tax:           event.Tax,
		Total:         event.Total,
	}
	for _, item := range event.Items {
		line := notification.OrderLine{
			Name:      item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		if p, ok := byID[item.ProductID]; ok {
			line.Name = p.Name
			line.SKU = p.SKU
			line.ImageURL = p.ImageURL
		}
		summary.Lines = append(summary.Lines, line)
	}
	return summary
}
