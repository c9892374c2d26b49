package checkout

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/checkout/internal/config"
	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/internal/presentation/http/response"
	service "github.com/Additional-Code/checkout/internal/service/checkout"
	"github.com/Additional-Code/checkout/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/checkout/transport/http/checkout")

// checkoutService is the slice of the checkout service this surface calls.
type checkoutService interface {
	CreateSession(ctx context.Context, req dto.SessionRequest) (dto.SessionResponse, error)
	Capture(ctx context.Context, req dto.CaptureRequest) (dto.CaptureResponse, error)
	Estimate(ctx context.Context, req dto.EstimateRequest) (dto.EstimateResponse, error)
	Reconcile(ctx context.Context, params url.Values) error
}

// Handler exposes the checkout flow over HTTP.
type Handler struct {
	svc         checkoutService
	logger      *zap.Logger
	successPath string
}

// NewHandler constructs a checkout Handler.
func NewHandler(svc *service.Service, cfg config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		svc:         svc,
		logger:      logger,
		successPath: cfg.Checkout.SuccessPath,
	}
}

// Register routes with provided Echo instance. The return route accepts both
// verbs because the processor redirects with GET but legacy notification
// settings POST the same fields.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/checkout")
	g.POST("/session", h.createSession)
	g.POST("/capture", h.capture)
	g.GET("/return", h.handleReturn)
	g.POST("/return", h.handleReturn)

	e.POST("/shipping/estimate", h.estimate)
}

func (h *Handler) createSession(c echo.Context) error {
	b := response.New(c)

	var req dto.SessionRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "checkout.createSession")
	defer span.End()

	resp, err := h.svc.CreateSession(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}

	span.SetAttributes(attribute.String("checkout.session_id", resp.SessionID))
	return b.WithStatus(http.StatusCreated).WithData(resp).Build()
}

func (h *Handler) capture(c echo.Context) error {
	b := response.New(c)

	var req dto.CaptureRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "checkout.capture", trace.WithAttributes(
		attribute.String("checkout.session_id", req.SessionID),
	))
	defer span.End()

	resp, err := h.svc.Capture(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}

	span.SetAttributes(attribute.String("order.number", resp.OrderNumber))
	return b.WithStatus(http.StatusCreated).WithData(resp).Build()
}

// handleReturn absorbs the processor's browser return. Reconciliation is
// best-effort: whatever happens, the customer lands on the success page with
// the processor's parameters preserved.
func (h *Handler) handleReturn(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "checkout.return")
	defer span.End()

	params := returnParams(c)
	if err := h.svc.Reconcile(ctx, params); err != nil {
		span.RecordError(err)
		h.logger.Error("return reconciliation failed", zap.Error(err))
	}

	target := h.successPath
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (h *Handler) estimate(c echo.Context) error {
	b := response.New(c)

	var req dto.EstimateRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "checkout.estimate", trace.WithAttributes(
		attribute.String("shipping.country", req.CountryCode),
	))
	defer span.End()

	resp, err := h.svc.Estimate(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(resp).Build()
}

// returnParams merges query and form parameters; query wins on conflict.
func returnParams(c echo.Context) url.Values {
	params := url.Values{}

	if strings.EqualFold(c.Request().Method, http.MethodPost) {
		if form, err := c.FormParams(); err == nil {
			for key, values := range form {
				params[key] = values
			}
		}
	}
	for key, values := range c.QueryParams() {
		params[key] = values
	}
	return params
}
