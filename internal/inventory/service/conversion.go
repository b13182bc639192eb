package service

import (
	"context"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// ConversionResolver resolves multiplicative unit conversion factors for an
// item. Every stock-moving operation goes through it to normalize quantities
// before they reach the ledger.
type ConversionResolver struct {
	conversions *repository.ConversionRepository
}

// NewConversionResolver creates a new conversion resolver
func NewConversionResolver(conversions *repository.ConversionRepository) *ConversionResolver {
	return &ConversionResolver{conversions: conversions}
}

// Factor returns the factor converting fromUnit to toUnit for an item.
//
// Same-unit conversions short-circuit to 1.0 without a lookup. Otherwise the
// direct mapping wins; failing that, a stored reverse mapping is inverted on
// demand. When neither direction exists the operation must abort — there is
// no fallback factor.
func (c *ConversionResolver) Factor(ctx context.Context, q database.Queryer, itemID, fromUnit, toUnit string) (float64, error) {
	if fromUnit == toUnit {
		return 1.0, nil
	}

	conv, err := c.conversions.Find(ctx, q, itemID, fromUnit, toUnit)
	if err == nil {
		return conv.Factor, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return 0, err
	}

	reverse, err := c.conversions.Find(ctx, q, itemID, toUnit, fromUnit)
	if err == nil {
		if reverse.Factor != 0 {
			return 1.0 / reverse.Factor, nil
		}
		return 0, errors.ConversionUnavailable(itemID, fromUnit, toUnit)
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return 0, err
	}

	return 0, errors.ConversionUnavailable(itemID, fromUnit, toUnit)
}
