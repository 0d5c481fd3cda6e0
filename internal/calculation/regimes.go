package calculation

import (
	"sort"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/shopspring/decimal"
)

// TAX RULE ASSUMPTIONS (FY 2025-26 defaults):
//
// 1. New Regime: Rs 75,000 standard deduction, no itemized deductions,
//    seven slabs from 0% to 30% starting at Rs 4 lakh.
//
// 2. Old Regime: Rs 50,000 standard deduction plus capped Chapter VI-A
//    deductions, four slabs from 0% to 30%.
//
// 3. No surcharge, health and education cess, or age-based exemption limits.

// slab is a band with its cumulative base tax precomputed from the lower bands
type slab struct {
	floor decimal.Decimal
	rate  decimal.Decimal
	base  decimal.Decimal
}

// RegimeEvaluator computes the tax due under one regime's slab table
type RegimeEvaluator struct {
	Regime            domain.Regime
	StandardDeduction decimal.Decimal
	slabs             []slab
}

// NewRegimeEvaluator builds an evaluator, deriving each band's base tax
// as the tax due on income exactly at that band's floor.
func NewRegimeEvaluator(regime domain.Regime, rules domain.RegimeRules) *RegimeEvaluator {
	bands := append([]domain.TaxBand(nil), rules.Bands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Floor.LessThan(bands[j].Floor) })

	slabs := make([]slab, len(bands))
	base := decimal.Zero
	for i, b := range bands {
		if i > 0 {
			prev := bands[i-1]
			base = base.Add(b.Floor.Sub(prev.Floor).Mul(prev.Rate))
		}
		slabs[i] = slab{floor: b.Floor, rate: b.Rate, base: base}
	}

	return &RegimeEvaluator{
		Regime:            regime,
		StandardDeduction: rules.StandardDeduction,
		slabs:             slabs,
	}
}

// TaxableIncome subtracts the standard deduction and any further deductions
// from gross income, flooring the result at zero.
func (re *RegimeEvaluator) TaxableIncome(grossIncome, deductions decimal.Decimal) decimal.Decimal {
	return decimal.Max(grossIncome.Sub(re.StandardDeduction).Sub(deductions), decimal.Zero)
}

// TaxOn applies the slab table to an already-reduced taxable income:
// base of the band the income falls in plus (income - floor) * rate.
func (re *RegimeEvaluator) TaxOn(taxable decimal.Decimal) decimal.Decimal {
	for i := len(re.slabs) - 1; i >= 0; i-- {
		s := re.slabs[i]
		if taxable.GreaterThan(s.floor) {
			return s.base.Add(taxable.Sub(s.floor).Mul(s.rate))
		}
	}
	return decimal.Zero
}

// Evaluate computes the regime result for gross income and extra deductions
func (re *RegimeEvaluator) Evaluate(grossIncome, deductions decimal.Decimal) domain.TaxResult {
	taxable := re.TaxableIncome(grossIncome, deductions)
	return domain.TaxResult{
		Regime:        re.Regime,
		TaxableIncome: taxable,
		TaxAmount:     re.TaxOn(taxable),
	}
}

// BandBases returns the derived cumulative base tax of each band, lowest first
func (re *RegimeEvaluator) BandBases() []decimal.Decimal {
	bases := make([]decimal.Decimal, len(re.slabs))
	for i, s := range re.slabs {
		bases[i] = s.base
	}
	return bases
}

// NewRegimeCalculator evaluates the new regime, which ignores itemized deductions
type NewRegimeCalculator struct {
	*RegimeEvaluator
}

// NewNewRegimeCalculator creates a new-regime calculator from rules
func NewNewRegimeCalculator(rules domain.RegimeRules) *NewRegimeCalculator {
	return &NewRegimeCalculator{NewRegimeEvaluator(domain.NewRegime, rules)}
}

// Calculate computes new-regime tax on gross income
func (c *NewRegimeCalculator) Calculate(grossIncome decimal.Decimal) domain.TaxResult {
	return c.Evaluate(grossIncome, decimal.Zero)
}

// OldRegimeCalculator evaluates the old regime with capped itemized deductions
type OldRegimeCalculator struct {
	*RegimeEvaluator
}

// NewOldRegimeCalculator creates an old-regime calculator from rules
func NewOldRegimeCalculator(rules domain.RegimeRules) *OldRegimeCalculator {
	return &OldRegimeCalculator{NewRegimeEvaluator(domain.OldRegime, rules)}
}

// Calculate computes old-regime tax on gross income after capped deductions
func (c *OldRegimeCalculator) Calculate(grossIncome decimal.Decimal, deductions domain.CappedDeductions) domain.TaxResult {
	return c.Evaluate(grossIncome, deductions.Total())
}

// DefaultNewRegimeRules returns the FY 2025-26 new-regime table
func DefaultNewRegimeRules() domain.RegimeRules {
	return domain.RegimeRules{
		StandardDeduction: decimal.NewFromInt(75000),
		Bands: []domain.TaxBand{
			{Floor: decimal.Zero, Rate: decimal.Zero},
			{Floor: decimal.NewFromInt(400000), Rate: decimal.NewFromFloat(0.05)},
			{Floor: decimal.NewFromInt(800000), Rate: decimal.NewFromFloat(0.10)},
			{Floor: decimal.NewFromInt(1200000), Rate: decimal.NewFromFloat(0.15)},
			{Floor: decimal.NewFromInt(1600000), Rate: decimal.NewFromFloat(0.20)},
			{Floor: decimal.NewFromInt(2000000), Rate: decimal.NewFromFloat(0.25)},
			{Floor: decimal.NewFromInt(2400000), Rate: decimal.NewFromFloat(0.30)},
		},
	}
}

// DefaultOldRegimeRules returns the FY 2025-26 old-regime table
func DefaultOldRegimeRules() domain.RegimeRules {
	return domain.RegimeRules{
		StandardDeduction: decimal.NewFromInt(50000),
		Bands: []domain.TaxBand{
			{Floor: decimal.Zero, Rate: decimal.Zero},
			{Floor: decimal.NewFromInt(250000), Rate: decimal.NewFromFloat(0.05)},
			{Floor: decimal.NewFromInt(500000), Rate: decimal.NewFromFloat(0.20)},
			{Floor: decimal.NewFromInt(1000000), Rate: decimal.NewFromFloat(0.30)},
		},
	}
}

// DefaultDeductionCeilings returns the statutory ceiling per category.
// Categories mapped to nil are uncapped.
func DefaultDeductionCeilings() map[domain.DeductionCategory]*decimal.Decimal {
	ceiling := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	return map[domain.DeductionCategory]*decimal.Decimal{
		domain.Section80C:   ceiling(150000),
		domain.Section80D:   ceiling(25000),
		domain.Section24B:   ceiling(200000),
		domain.Section80TTA: ceiling(10000),
		domain.Section80CCD: ceiling(50000),
		domain.Section80G:   nil,
		domain.Section80E:   nil,
		domain.HRAExemption: nil,
	}
}

// DefaultFinancialYear is the year the built-in tables apply to
const DefaultFinancialYear = "2025-26"

// DefaultRuleSet returns the built-in rule set for DefaultFinancialYear
func DefaultRuleSet() domain.RuleSet {
	return domain.RuleSet{
		FinancialYear:     DefaultFinancialYear,
		NewRegime:         DefaultNewRegimeRules(),
		OldRegime:         DefaultOldRegimeRules(),
		DeductionCeilings: DefaultDeductionCeilings(),
	}
}
