package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/checkout/internal/dto"
	"github.com/Additional-Code/checkout/internal/entity"
)

func testZones() []*entity.ShippingZone {
	return []*entity.ShippingZone{
		{Name: "Asia", Countries: []string{"TH", "SG", "MY"}, ShippingCost: 120, IsActive: true},
		{Name: "Europe", Countries: []string{"Germany", "France"}, ShippingCost: 180, IsActive: true},
		{Name: "Rest of World", Countries: []string{}, ShippingCost: 200, IsDefault: true, IsActive: true},
	}
}

func newTestEngine() *Engine {
	return NewEngine(Config{HomeCountry: "VN", FallbackCost: 25})
}

func TestQuoteHomeCountryIsFree(t *testing.T) {
	e := newTestEngine()

	q := e.Quote("VN", []dto.CartLine{
		{ProductID: "p1", Price: 900, Quantity: 1, ShippingCostOverride: 300},
	}, testZones())

	assert.Zero(t, q.Cost)
	assert.Equal(t, "Vietnam", q.ZoneName)
}

func TestQuoteOverrideRules(t *testing.T) {
	e := newTestEngine()
	zones := testZones()

	tests := []struct {
		name     string
		country  string
		lines    []dto.CartLine
		wantCost float64
		wantZone string
	}{
		{
			name:     "no overrides uses zone base",
			country:  "TH",
			lines:    []dto.CartLine{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 2}},
			wantCost: 120,
			wantZone: "Asia",
		},
		{
			name:     "default zone base cost",
			country:  "US",
			lines:    []dto.CartLine{{ProductID: "a", Quantity: 1}},
			wantCost: 200,
			wantZone: "Rest of World",
		},
		{
			name:     "single line override beats zone base",
			country:  "US",
			lines:    []dto.CartLine{{ProductID: "a", Quantity: 1, ShippingCostOverride: 150}},
			wantCost: 150,
			wantZone: "Rest of World",
		},
		{
			name:    "all lines overridden takes the max",
			country: "US",
			lines: []dto.CartLine{
				{ProductID: "a", Quantity: 1, ShippingCostOverride: 80},
				{ProductID: "b", Quantity: 1, ShippingCostOverride: 120},
			},
			wantCost: 120,
			wantZone: "Rest of World",
		},
		{
			name:    "mixed lines take max of override and base",
			country: "US",
			lines: []dto.CartLine{
				{ProductID: "a", Quantity: 1, ShippingCostOverride: 300},
				{ProductID: "b", Quantity: 1},
			},
			wantCost: 300,
			wantZone: "Rest of World",
		},
		{
			name:    "mixed lines where base wins",
			country: "US",
			lines: []dto.CartLine{
				{ProductID: "a", Quantity: 1, ShippingCostOverride: 90},
				{ProductID: "b", Quantity: 1},
			},
			wantCost: 200,
			wantZone: "Rest of World",
		},
		{
			name:     "legacy country names still match",
			country:  "DE",
			lines:    []dto.CartLine{{ProductID: "a", Quantity: 1}},
			wantCost: 180,
			wantZone: "Europe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := e.Quote(tt.country, tt.lines, zones)
			assert.Equal(t, tt.wantCost, q.Cost)
			assert.Equal(t, tt.wantZone, q.ZoneName)
			assert.NotEmpty(t, q.Breakdown)
		})
	}
}

func TestQuoteFallbackWithoutZones(t *testing.T) {
	e := newTestEngine()

	q := e.Quote("US", []dto.CartLine{{ProductID: "a", Price: 1000, Quantity: 1}}, nil)

	assert.Equal(t, 25.0, q.Cost)
	assert.Equal(t, "International", q.ZoneName)
}

func TestQuoteIgnoresInactiveZones(t *testing.T) {
	e := newTestEngine()
	zones := []*entity.ShippingZone{
		{Name: "Disabled", Countries: []string{"US"}, ShippingCost: 10, IsActive: false},
		{Name: "Rest of World", ShippingCost: 200, IsDefault: true, IsActive: true},
	}

	q := e.Quote("US", []dto.CartLine{{ProductID: "a", Quantity: 1}}, zones)

	assert.Equal(t, 200.0, q.Cost)
	assert.Equal(t, "Rest of World", q.ZoneName)
}

func TestQuoteIsDeterministic(t *testing.T) {
	e := newTestEngine()
	lines := []dto.CartLine{
		{ProductID: "a", Quantity: 1, ShippingCostOverride: 80},
		{ProductID: "b", Quantity: 3},
	}
	zones := testZones()

	first := e.Quote("SG", lines, zones)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Quote("SG", lines, zones))
	}
}
