package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Regime identifies one of the two statutory tax computation methods
type Regime string

const (
	OldRegime Regime = "Old Regime"
	NewRegime Regime = "New Regime"
)

// DeductionCategory is a named statutory allowance claimable under the old regime
type DeductionCategory string

const (
	Section80C   DeductionCategory = "80c"   // Retirement savings (PPF, ELSS, EPF, LIC)
	Section80D   DeductionCategory = "80d"   // Medical insurance premiums
	Section24B   DeductionCategory = "24b"   // Home-loan interest
	Section80TTA DeductionCategory = "80tta" // Savings-account interest
	Section80CCD DeductionCategory = "80ccd" // National Pension Scheme
	Section80G   DeductionCategory = "80g"   // Donations
	Section80E   DeductionCategory = "80e"   // Education-loan interest
	HRAExemption DeductionCategory = "hra"   // House-rent allowance exemption
)

// KnownCategories lists every category the capper understands, in display order.
var KnownCategories = []DeductionCategory{
	Section80C,
	Section80D,
	Section24B,
	Section80TTA,
	Section80CCD,
	Section80G,
	Section80E,
	HRAExemption,
}

// IsKnown reports whether c is one of the enumerated categories
func (c DeductionCategory) IsKnown() bool {
	for _, k := range KnownCategories {
		if k == c {
			return true
		}
	}
	return false
}

// DeductionClaim maps a category to the amount the taxpayer claims.
// Unknown categories are tolerated and ignored by the capper.
type DeductionClaim map[DeductionCategory]decimal.Decimal

// CappedDeductions holds every known category clamped to its ceiling.
type CappedDeductions map[DeductionCategory]decimal.Decimal

// Total returns the sum of all capped amounts
func (cd CappedDeductions) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range cd {
		total = total.Add(amount)
	}
	return total
}

// Categories returns the categories present, sorted for deterministic output
func (cd CappedDeductions) Categories() []DeductionCategory {
	cats := make([]DeductionCategory, 0, len(cd))
	for c := range cd {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// TaxBand is one contiguous slab of taxable income taxed at a single marginal rate.
// Floor is the exclusive lower bound; the band extends to the next band's floor.
type TaxBand struct {
	Floor decimal.Decimal `yaml:"floor" json:"floor"`
	Rate  decimal.Decimal `yaml:"rate" json:"rate"`
}

// RegimeRules contains the standard deduction and slab table of one regime
type RegimeRules struct {
	StandardDeduction decimal.Decimal `yaml:"standard_deduction" json:"standard_deduction"`
	Bands             []TaxBand       `yaml:"bands" json:"bands"`
}

// RuleSet is the versioned configuration table for one financial year.
// A nil ceiling marks an uncapped category.
type RuleSet struct {
	FinancialYear     string                                 `yaml:"financial_year" json:"financial_year"`
	NewRegime         RegimeRules                            `yaml:"new_regime" json:"new_regime"`
	OldRegime         RegimeRules                            `yaml:"old_regime" json:"old_regime"`
	DeductionCeilings map[DeductionCategory]*decimal.Decimal `yaml:"deduction_ceilings" json:"deduction_ceilings"`
}

// RulesConfig is the top-level structure of a rules file
type RulesConfig struct {
	DefaultFinancialYear string    `yaml:"default_financial_year" json:"default_financial_year"`
	RuleSets             []RuleSet `yaml:"rule_sets" json:"rule_sets"`
}

// Find returns the rule set for the given financial year
func (rc *RulesConfig) Find(financialYear string) (RuleSet, bool) {
	for _, rs := range rc.RuleSets {
		if rs.FinancialYear == financialYear {
			return rs, true
		}
	}
	return RuleSet{}, false
}

// Default returns the rule set named by DefaultFinancialYear
func (rc *RulesConfig) Default() (RuleSet, bool) {
	return rc.Find(rc.DefaultFinancialYear)
}

// TaxResult is the output of a single regime evaluator
type TaxResult struct {
	Regime        Regime          `json:"regime"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
}

// Comparison is the recommendation produced from both regime results.
// Amounts are whole currency units.
type Comparison struct {
	OldRegimeTax   decimal.Decimal `json:"old_regime_tax" yaml:"old_regime_tax"`
	NewRegimeTax   decimal.Decimal `json:"new_regime_tax" yaml:"new_regime_tax"`
	Savings        decimal.Decimal `json:"savings" yaml:"savings"`
	Recommendation Regime          `json:"recommendation" yaml:"recommendation"`
}

// ComparisonReport bundles a comparison with the inputs and intermediate results
// so formatters can show how it was reached.
type ComparisonReport struct {
	FinancialYear string           `json:"financial_year"`
	GrossIncome   decimal.Decimal  `json:"gross_income"`
	Deductions    CappedDeductions `json:"capped_deductions"`
	Old           TaxResult        `json:"old_regime"`
	New           TaxResult        `json:"new_regime"`
	Comparison    Comparison       `json:"tax_comparison"`
}
