package calculation

import (
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/shopspring/decimal"
)

// Compare floors both regime taxes to whole units and recommends the cheaper
// regime. Ties favor the new regime.
func Compare(oldResult, newResult domain.TaxResult) domain.Comparison {
	oldTax := oldResult.TaxAmount.Floor()
	newTax := newResult.TaxAmount.Floor()

	recommendation := domain.OldRegime
	if newTax.LessThanOrEqual(oldTax) {
		recommendation = domain.NewRegime
	}

	return domain.Comparison{
		OldRegimeTax:   oldTax,
		NewRegimeTax:   newTax,
		Savings:        oldTax.Sub(newTax).Abs(),
		Recommendation: recommendation,
	}
}

// EffectiveRate returns tax as a percentage of gross income, zero for zero income
func EffectiveRate(tax, grossIncome decimal.Decimal) decimal.Decimal {
	if !grossIncome.IsPositive() {
		return decimal.Zero
	}
	return tax.Div(grossIncome).Mul(decimal.NewFromInt(100)).Round(2)
}
