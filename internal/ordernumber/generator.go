package ordernumber

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Additional-Code/checkout/pkg/errorbank"
)

// ExistsFunc reports whether an order with the given number is already
// persisted. The storage layer keeps a unique index on the number, so the
// generator only narrows the race window, it does not close it.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// Generator produces human-readable order numbers derived from the current
// time in the seller's timezone. Format: YYMMDDHHmmss, with millisecond and
// then random entropy appended when a collision is detected.
type Generator struct {
	loc         *time.Location
	maxAttempts int
	now         func() time.Time
	randInt     func(n int) int
}

// New builds a Generator for the given timezone name.
func New(timezone string, maxAttempts int) (*Generator, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Generator{
		loc:         loc,
		maxAttempts: maxAttempts,
		now:         time.Now,
		randInt:     rand.Intn,
	}, nil
}

// Generate returns an order number not currently present in storage. When
// every attempt collides it fails with a persistence-class error rather
// than handing back a duplicate.
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		number := g.candidate(attempt)

		taken, err := exists(ctx, number)
		if err != nil {
			return "", errorbank.Internal("order number lookup failed", errorbank.WithCause(err))
		}
		if !taken {
			return number, nil
		}
	}
	return "", errorbank.Internal("order number generation exhausted retries",
		errorbank.WithDetail("attempts", g.maxAttempts))
}

// candidate formats the base timestamp token, widening it with millisecond
// entropy on the first retry and random entropy afterwards.
func (g *Generator) candidate(attempt int) string {
	now := g.now()
	local := now.In(g.loc)
	base := local.Format("060102150405")

	switch {
	case attempt == 0:
		return base
	case attempt == 1:
		return fmt.Sprintf("%s%03d", base, now.Nanosecond()/int(time.Millisecond))
	default:
		return fmt.Sprintf("%s%03d%03d", base, now.Nanosecond()/int(time.Millisecond), g.randInt(1000))
	}
}
