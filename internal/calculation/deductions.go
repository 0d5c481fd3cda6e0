package calculation

import (
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/shopspring/decimal"
)

// CapDeductions clamps each known category of a claim to the ceiling table.
//
// Every known category appears in the result, defaulting to zero. Negative
// claims are floored to zero, categories with a nil ceiling pass through
// uncapped, and unknown categories are dropped.
func CapDeductions(ceilings map[domain.DeductionCategory]*decimal.Decimal, claims domain.DeductionClaim) domain.CappedDeductions {
	capped := make(domain.CappedDeductions, len(domain.KnownCategories))
	for _, category := range domain.KnownCategories {
		amount := decimal.Max(claims[category], decimal.Zero)
		if ceiling := ceilings[category]; ceiling != nil {
			amount = decimal.Min(amount, *ceiling)
		}
		capped[category] = amount
	}
	return capped
}

// CeilingTotal returns the sum of all finite ceilings in the table
func CeilingTotal(ceilings map[domain.DeductionCategory]*decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, ceiling := range ceilings {
		if ceiling != nil {
			total = total.Add(*ceiling)
		}
	}
	return total
}
