package shipping

import (
	"fmt"
	"strings"

	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/internal/entity"
)

// Config parameterises the engine. The same instance backs every pricing
// call site so quoted and charged amounts cannot drift apart.
type Config struct {
	// HomeCountry ships free.
	HomeCountry string
	// FallbackCost applies when no zone matches and no default zone exists.
	FallbackCost float64
}

// Quote is the outcome of a shipping computation. Breakdown is a display
// string describing which rule fired; it is not machine-parsed.
type Quote struct {
	Cost         float64
	ZoneName     string
	Breakdown    string
	BaseZoneCost float64
}

// Engine resolves shipping cost from a destination, the cart lines, and the
// configured zones. It is a pure function of its inputs.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine with the given policy parameters.
func NewEngine(cfg Config) *Engine {
	cfg.HomeCountry = strings.ToUpper(strings.TrimSpace(cfg.HomeCountry))
	return &Engine{cfg: cfg}
}

// Quote computes the final shipping cost for a destination country.
//
// Rules, in order:
//  1. Home country ships free.
//  2. Resolve a zone: first active zone listing the country (by code or
//     legacy full name), else the active default zone, else the fallback
//     constant.
//  3. Line-level overrides: none -> zone base; a single line that carries
//     one -> that override; all lines overridden -> max override; mixed ->
//     max(max override, zone base).
func (e *Engine) Quote(countryCode string, lines []dto.CartLine, zones []*entity.ShippingZone) Quote {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))

	if countryCode != "" && countryCode == e.cfg.HomeCountry {
		return Quote{
			Cost:      0,
			ZoneName:  countryName(countryCode),
			Breakdown: fmt.Sprintf("Free shipping within %s", countryName(countryCode)),
		}
	}

	zone := resolveZone(countryCode, zones)

	baseCost := e.cfg.FallbackCost
	zoneName := "International"
	if zone != nil {
		baseCost = zone.ShippingCost
		zoneName = zone.Name
	}

	overrides := make([]float64, 0, len(lines))
	plain := 0
	for _, line := range lines {
		if line.ShippingCostOverride > 0 {
			overrides = append(overrides, line.ShippingCostOverride)
		} else {
			plain++
		}
	}

	quote := Quote{ZoneName: zoneName, BaseZoneCost: baseCost}

	switch {
	case len(overrides) == 0:
		quote.Cost = baseCost
		quote.Breakdown = fmt.Sprintf("Standard shipping: $%v", baseCost)
	case len(lines) == 1:
		quote.Cost = overrides[0]
		quote.Breakdown = fmt.Sprintf("Product shipping: $%v", quote.Cost)
	case plain == 0:
		quote.Cost = maxOf(overrides)
		quote.Breakdown = fmt.Sprintf("Combined shipping (highest rate): $%v", quote.Cost)
	default:
		highest := maxOf(overrides)
		if baseCost >= highest {
			quote.Cost = baseCost
			quote.Breakdown = fmt.Sprintf("Combined shipping (base rate): $%v", baseCost)
		} else {
			quote.Cost = highest
			quote.Breakdown = fmt.Sprintf("Combined shipping (highest product rate): $%v", highest)
		}
	}

	return quote
}

func resolveZone(countryCode string, zones []*entity.ShippingZone) *entity.ShippingZone {
	name := countryName(countryCode)

	for _, z := range zones {
		if z == nil || !z.IsActive {
			continue
		}
		for _, c := range z.Countries {
			if strings.EqualFold(c, countryCode) || strings.EqualFold(c, name) {
				return z
			}
		}
	}
	for _, z := range zones {
		if z != nil && z.IsActive && z.IsDefault {
			return z
		}
	}
	return nil
}

func maxOf(values []float64) float64 {
	highest := values[0]
	for _, v := range values[1:] {
		if v > highest {
			highest = v
		}
	}
	return highest
}
