package checkout

import (
	"math"
	"strconv"

	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/internal/entity"
	"github.com/Additional-Code/checkout/internal/shipping"
)

// Totals is the priced cart. Total always equals Subtotal+Shipping+Tax; the
// same computation backs session creation, capture, and the estimate
// endpoint so the charged and displayed amounts cannot diverge.
type Totals struct {
	Subtotal float64
	Shipping float64
	Tax      float64
	Total    float64
	Quote    shipping.Quote
}

func (s *Service) priceCart(lines []dto.CartLine, countryCode string, zones []*entity.ShippingZone) Totals {
	subtotal := 0.0
	for _, line := range lines {
		subtotal += line.Price * float64(line.Quantity)
	}
	subtotal = round2(subtotal)

	quote := s.engine.Quote(countryCode, lines, zones)
	shippingCost := round2(quote.Cost)
	tax := round2(subtotal * s.taxRate)

	return Totals{
		Subtotal: subtotal,
		Shipping: shippingCost,
		Tax:      tax,
		Total:    round2(subtotal + shippingCost + tax),
		Quote:    quote,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// money renders an amount the way the processor wants it on the wire.
func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
