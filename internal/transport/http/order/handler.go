package order

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/internal/presentation/http/response"
	service "github.com/Additional-Code/checkout/internal/service/order"
	"github.com/Additional-Code/checkout/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/checkout/transport/http/order")

// Handler exposes order lookups over HTTP. Orders are created by the capture
// flow, never through this surface.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("/:number", h.getByNumber)
}

func (h *Handler) getByNumber(c echo.Context) error {
	b := response.New(c)

	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		return b.WithError(errorbank.BadRequest("order number is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	order, err := h.svc.GetByNumber(ctx, number)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}
