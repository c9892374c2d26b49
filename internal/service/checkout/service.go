package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/config"
	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/internal/entity"
	"github.com/Additional-Code/checkout/internal/messaging"
	"github.com/Additional-Code/checkout/internal/ordernumber"
	"github.com/Additional-Code/checkout/internal/payment"
	orderrepo "github.com/Additional-Code/checkout/internal/repository/order"
	zonerepo "github.com/Additional-Code/checkout/internal/repository/shippingzone"
	ordersvc "github.com/Additional-Code/checkout/internal/service/order"
	"github.com/Additional-Code/checkout/internal/shipping"
	"github.com/Additional-Code/checkout/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/checkout/service/checkout")

// OrderStore is the slice of order persistence the checkout flow needs.
type OrderStore interface {
	Create(ctx context.Context, order *entity.Order) error
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	GetByNumber(ctx context.Context, number string) (*entity.Order, error)
	FindByTransactionID(ctx context.Context, txnID string) (*entity.Order, error)
	UpdateAddresses(ctx context.Context, order *entity.Order) error
}

// ZoneStore lists the configured shipping zones.
type ZoneStore interface {
	ListActive(ctx context.Context) ([]*entity.ShippingZone, error)
}

// CacheInvalidator drops a cached order after reconciliation changes it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, number string)
}

// Service drives the payment session, capture, and reconciliation flows.
type Service struct {
	orders      OrderStore
	zones       ZoneStore
	processor   payment.Processor
	engine      *shipping.Engine
	numbers     *ordernumber.Generator
	publisher   messaging.Client
	invalidator CacheInvalidator
	logger      *zap.Logger

	currency  string
	brandName string
	returnURL string
	cancelURL string
	taxRate   float64
	messaging messagingConfig
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders     *orderrepo.Repository
	Zones      *zonerepo.Repository
	Processor  payment.Processor
	OrderReads *ordersvc.Service
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	generator, err := ordernumber.New(p.Config.Checkout.Timezone, p.Config.Checkout.NumberMaxAttempts)
	if err != nil {
		return nil, err
	}
	engine := shipping.NewEngine(shipping.Config{
		HomeCountry:  p.Config.Pricing.HomeCountry,
		FallbackCost: p.Config.Pricing.FallbackShipping,
	})
	return newService(p.Orders, p.Zones, p.Processor, engine, generator, p.Publisher, p.OrderReads, p.Logger, p.Config), nil
}

// newService is the interface-typed constructor used directly by tests.
func newService(
	orders OrderStore,
	zones ZoneStore,
	processor payment.Processor,
	engine *shipping.Engine,
	numbers *ordernumber.Generator,
	publisher messaging.Client,
	invalidator CacheInvalidator,
	logger *zap.Logger,
	cfg config.Config,
) *Service {
	return &Service{
		orders:      orders,
		zones:       zones,
		processor:   processor,
		engine:      engine,
		numbers:     numbers,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger,
		currency:    cfg.Payment.Currency,
		brandName:   cfg.Payment.BrandName,
		returnURL:   publicURL(cfg.Checkout.PublicBaseURL, "/checkout/return"),
		cancelURL:   publicURL(cfg.Checkout.PublicBaseURL, "/checkout/cancel"),
		taxRate:     cfg.Pricing.TaxRate,
		messaging: messagingConfig{
			enabled: cfg.Messaging.Enabled,
			topic:   cfg.Messaging.Kafka.Topic,
		},
	}
}

// CreateSession prices the cart and opens a payment session with the
// processor. Nothing is persisted locally, so abandoning or retrying a
// session costs nothing.
func (s *Service) CreateSession(ctx context.Context, req dto.SessionRequest) (dto.SessionResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "CheckoutService.CreateSession")
	defer span.End()

	if fields := validateLines(req.Items); len(fields) > 0 {
		return dto.SessionResponse{}, errorbank.BadRequest("invalid cart", errorbank.WithDetail("fields", fields))
	}
	if fields := validateForm(req.ShippingInfo); len(fields) > 0 {
		return dto.SessionResponse{}, errorbank.BadRequest("invalid shipping form", errorbank.WithDetail("fields", fields))
	}

	totals := s.priceCart(req.Items, destinationCountry(req.ShippingInfo, nil), s.listZones(ctx))

	order := payment.CreateOrderRequest{
		Intent:             "CAPTURE",
		ApplicationContext: s.applicationContext(req.ShippingInfo),
		PurchaseUnits: []payment.PurchaseUnit{{
			Amount: payment.Amount{
				CurrencyCode: s.currency,
				Value:        money(totals.Total),
				Breakdown: &payment.AmountBreakdown{
					ItemTotal: payment.Money{CurrencyCode: s.currency, Value: money(totals.Subtotal)},
					Shipping:  payment.Money{CurrencyCode: s.currency, Value: money(totals.Shipping)},
					TaxTotal:  payment.Money{CurrencyCode: s.currency, Value: money(totals.Tax)},
				},
			},
			Items:    s.paymentItems(req.Items),
			Shipping: paymentShipping(req.ShippingInfo),
		}},
	}

	sessionID, err := s.processor.CreateOrder(ctx, order, uuid.NewString())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "processor rejected session")
		return dto.SessionResponse{}, err
	}

	span.SetAttributes(attribute.String("checkout.session_id", sessionID))
	return dto.SessionResponse{SessionID: sessionID}, nil
}

// Capture finalises an approved session, reconciles the shipping address,
// recomputes totals, and persists the order atomically. The processor's
// transaction id doubles as a dedup key so a duplicate capture call cannot
// create a second order for one payment.
func (s *Service) Capture(ctx context.Context, req dto.CaptureRequest) (dto.CaptureResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "CheckoutService.Capture", trace.WithAttributes(
		attribute.String("checkout.session_id", req.SessionID),
	))
	defer span.End()

	if req.SessionID == "" {
		return dto.CaptureResponse{}, errorbank.BadRequest("invalid capture request", errorbank.WithDetail("fields", []string{"sessionId"}))
	}
	if fields := validateLines(req.Items); len(fields) > 0 {
		return dto.CaptureResponse{}, errorbank.BadRequest("invalid cart", errorbank.WithDetail("fields", fields))
	}

	// A per-session idempotency key: concurrent duplicates present the same
	// key to the processor instead of racing to double-charge.
	result, err := s.processor.CaptureOrder(ctx, req.SessionID, "capture-"+req.SessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "capture failed")
		return dto.CaptureResponse{}, err
	}

	if result.TransactionID != "" {
		if existing, err := s.orders.FindByTransactionID(ctx, result.TransactionID); err == nil {
			s.logger.Warn("capture already persisted; returning existing order",
				zap.String("order", existing.Number),
				zap.String("transaction_id", result.TransactionID))
			return dto.CaptureResponse{OrderNumber: existing.Number, Status: existing.Status, Total: existing.Total}, nil
		}
	}

	shippingAddr := reconcileShippingAddress(req.ShippingInfo, result)
	billing := &entity.BillingRecord{
		ProcessorOrderID: result.SessionID,
		TransactionID:    result.TransactionID,
		PayerID:          result.Payer.PayerID,
		PayerEmail:       result.Payer.EmailAddress,
		PaymentStatus:    result.Status,
	}

	country := ""
	if shippingAddr != nil {
		country = shippingAddr.Country
	}
	totals := s.priceCart(req.Items, country, s.listZones(ctx))
	s.assertCapturedAmount(result, totals)

	number, err := s.numbers.Generate(ctx, s.orders.ExistsByNumber)
	if err != nil {
		return dto.CaptureResponse{}, s.persistenceFailure(err, result, totals)
	}

	order := &entity.Order{
		Number:          number,
		Status:          entity.StatusPaid,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
		UserID:          req.UserID,
		ShippingAddress: shippingAddr,
		Billing:         billing,
		Items:           orderItems(req.Items),
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return dto.CaptureResponse{}, s.persistenceFailure(err, result, totals)
	}

	s.publishOrderPaid(ctx, order)

	return dto.CaptureResponse{OrderNumber: order.Number, Status: order.Status, Total: order.Total}, nil
}

// Estimate previews shipping for a destination using the same engine that
// prices real charges.
func (s *Service) Estimate(ctx context.Context, req dto.EstimateRequest) (dto.EstimateResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "CheckoutService.Estimate")
	defer span.End()

	if strings.TrimSpace(req.CountryCode) == "" {
		return dto.EstimateResponse{}, errorbank.BadRequest("country code is required", errorbank.WithDetail("fields", []string{"countryCode"}))
	}

	quote := s.engine.Quote(req.CountryCode, req.Items, s.listZones(ctx))
	return dto.EstimateResponse{
		ShippingCost: quote.Cost,
		ZoneName:     quote.ZoneName,
		Breakdown:    quote.Breakdown,
		BaseZoneCost: quote.BaseZoneCost,
	}, nil
}

// Reconcile applies payer fields from the processor's return callback to an
// existing order. Missing orders are a no-op: the callback may fire for
// sessions that never became orders. Populated fields are never overwritten.
func (s *Service) Reconcile(ctx context.Context, params url.Values) error {
	ctx, span := serviceTracer.Start(ctx, "CheckoutService.Reconcile")
	defer span.End()

	key := correlationKey(params)
	if key == "" {
		s.logger.Debug("return callback without correlation key; skipping")
		return nil
	}

	order, err := s.orders.GetByNumber(ctx, key)
	if err != nil {
		if err == orderrepo.ErrNotFound {
			s.logger.Debug("return callback matched no order", zap.String("correlation_key", key))
			return nil
		}
		span.RecordError(err)
		return errorbank.Internal("order lookup failed", errorbank.WithCause(err))
	}

	changed := mergeReturnFields(order, params)
	if !changed {
		return nil
	}

	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.UpdateAddresses(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "address update failed")
		return errorbank.Internal("address update failed", errorbank.WithCause(err))
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, order.Number)
	}
	s.logger.Info("return callback merged into order", zap.String("order", order.Number))
	return nil
}

func (s *Service) listZones(ctx context.Context) []*entity.ShippingZone {
	zones, err := s.zones.ListActive(ctx)
	if err != nil {
		// Pricing falls back to the flat default; capture must not die on a
		// zone read when the payment is already in flight.
		s.logger.Warn("shipping zones unavailable; using fallback pricing", zap.Error(err))
		return nil
	}
	return zones
}

// assertCapturedAmount cross-checks the recomputed total against what the
// processor reports as captured. A mismatch is a data-integrity signal for
// operators, not a reason to reject the order.
func (s *Service) assertCapturedAmount(result *payment.CaptureResult, totals Totals) {
	if result.CapturedAmount == "" {
		return
	}
	if result.CapturedAmount != money(totals.Total) {
		s.logger.Error("captured amount does not match recomputed total",
			zap.String("captured", result.CapturedAmount),
			zap.String("computed", money(totals.Total)),
			zap.String("processor_order_id", result.SessionID),
			zap.String("transaction_id", result.TransactionID))
	}
}

// persistenceFailure wraps a post-capture storage failure with everything a
// support operator needs to reconcile the charge by hand.
func (s *Service) persistenceFailure(err error, result *payment.CaptureResult, totals Totals) error {
	s.logger.Error("payment captured but order not persisted",
		zap.String("processor_order_id", result.SessionID),
		zap.String("transaction_id", result.TransactionID),
		zap.String("payer_email", result.Payer.EmailAddress),
		zap.Float64("amount", totals.Total),
		zap.Error(err))

	return errorbank.Internal(
		"your payment was received but the order could not be recorded; please contact support instead of retrying",
		errorbank.WithCause(err),
		errorbank.WithDetails(map[string]any{
			"processorOrderId": result.SessionID,
			"transactionId":    result.TransactionID,
		}))
}

func (s *Service) publishOrderPaid(ctx context.Context, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}

	event := OrderPaidEvent{
		OrderNumber: order.Number,
		Subtotal:    order.Subtotal,
		Shipping:    order.Shipping,
		Tax:         order.Tax,
		Total:       order.Total,
		CreatedAt:   order.CreatedAt,
	}
	if addr := order.ShippingAddress; addr != nil {
		event.CustomerEmail = addr.Email
		event.CustomerName = strings.TrimSpace(addr.FirstName + " " + addr.LastName)
	}
	if event.CustomerEmail == "" && order.Billing != nil {
		event.CustomerEmail = order.Billing.PayerEmail
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderPaidItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order paid event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%s", order.Number)), payload); err != nil {
		// Notification is best-effort: the order stands either way.
		s.logger.Error("publish order paid event", zap.String("order", order.Number), zap.Error(err))
	}
}

// applicationContext steers the approval page: a completed form means the
// processor shows the provided address instead of asking again.
func (s *Service) applicationContext(form *dto.ShippingForm) *payment.ApplicationContext {
	appCtx := &payment.ApplicationContext{
		BrandName: s.brandName,
		ReturnURL: s.returnURL,
		CancelURL: s.cancelURL,
	}
	if form.Complete() {
		appCtx.ShippingPreference = "SET_PROVIDED_ADDRESS"
	} else {
		appCtx.ShippingPreference = "GET_FROM_FILE"
	}
	return appCtx
}

func publicURL(base, path string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + path
}

func (s *Service) paymentItems(lines []dto.CartLine) []payment.Item {
	items := make([]payment.Item, 0, len(lines))
	for _, line := range lines {
		name := line.Name
		if len(name) > 127 {
			name = name[:127]
		}
		items = append(items, payment.Item{
			Name:       name,
			Quantity:   fmt.Sprintf("%d", line.Quantity),
			UnitAmount: payment.Money{CurrencyCode: s.currency, Value: money(line.Price)},
		})
	}
	return items
}
