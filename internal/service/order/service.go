package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/cache"
	"github.com/Additional-Code/checkout/internal/config"
	"github.com/Additional-Code/checkout/internal/entity"
	repo "github.com/Additional-Code/checkout/internal/repository/order"
	"github.com/Additional-Code/checkout/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/checkout/service/order")

// Service is the read side for persisted orders. Lookups are keyed by the
// client-facing order number and cached; the capture flow writes orders, this
// service only reads them back.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Checkout.OrderCacheTTL,
		logger:   p.Logger,
	}
}

// GetByNumber retrieves an order by its number, consulting cache first.
func (s *Service) GetByNumber(ctx context.Context, number string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.GetByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	if order, err := s.getFromCache(ctx, number); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("number", number), zap.Error(err))
	}

	order, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("number", number), zap.Error(err))
	}

	return order, nil
}

// Invalidate drops a cached order, used after reconciliation updates it.
func (s *Service) Invalidate(ctx context.Context, number string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(number)); err != nil {
		s.logger.Warn("orders cache invalidate failed", zap.String("number", number), zap.Error(err))
	}
}

func cacheKey(number string) string {
	return "orders:number:" + number
}

func (s *Service) getFromCache(ctx context.Context, number string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, cacheKey(number))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cacheKey(order.Number), bytes, s.cacheTTL)
}
