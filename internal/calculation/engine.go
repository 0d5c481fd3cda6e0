package calculation

import (
	"fmt"
	"sync/atomic"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/logging"
	"github.com/shopspring/decimal"
)

// ValidateIncome rejects values the pipeline must never see.
// A negative income is a caller bug, not a zero-income case.
func ValidateIncome(grossIncome decimal.Decimal) error {
	if grossIncome.IsNegative() {
		return fmt.Errorf("%w: gross income cannot be negative, got %s", ErrInvalidInput, grossIncome.String())
	}
	return nil
}

// BuildReport runs the full pipeline and keeps the intermediate results.
func BuildReport(rules domain.RuleSet, grossIncome decimal.Decimal, claims domain.DeductionClaim) (*domain.ComparisonReport, error) {
	if err := ValidateIncome(grossIncome); err != nil {
		return nil, err
	}

	capped := CapDeductions(rules.DeductionCeilings, claims)
	oldResult := NewOldRegimeCalculator(rules.OldRegime).Calculate(grossIncome, capped)
	newResult := NewNewRegimeCalculator(rules.NewRegime).Calculate(grossIncome)

	return &domain.ComparisonReport{
		FinancialYear: rules.FinancialYear,
		GrossIncome:   grossIncome,
		Deductions:    capped,
		Old:           oldResult,
		New:           newResult,
		Comparison:    Compare(oldResult, newResult),
	}, nil
}

// ComputeTaxComparison compares the old and new regimes for one taxpayer.
// It is pure: identical inputs always produce identical output.
func ComputeTaxComparison(rules domain.RuleSet, grossIncome decimal.Decimal, claims domain.DeductionClaim) (domain.Comparison, error) {
	report, err := BuildReport(rules, grossIncome, claims)
	if err != nil {
		return domain.Comparison{}, err
	}
	return report.Comparison, nil
}

// TaxEngine serves comparisons against an active rule set that can be
// replaced while requests are in flight.
type TaxEngine struct {
	rules  atomic.Pointer[domain.RuleSet]
	Logger logging.Logger
}

// NewTaxEngine creates an engine with the built-in rule set
func NewTaxEngine() *TaxEngine {
	return NewTaxEngineWithRules(DefaultRuleSet())
}

// NewTaxEngineWithRules creates an engine with the given rule set
func NewTaxEngineWithRules(rules domain.RuleSet) *TaxEngine {
	te := &TaxEngine{Logger: logging.NopLogger{}}
	te.rules.Store(&rules)
	return te
}

// SetLogger sets the logger for the engine. If nil is provided, a no-op logger is used.
func (te *TaxEngine) SetLogger(l logging.Logger) {
	te.Logger = logging.OrNop(l)
}

// Rules returns the active rule set
func (te *TaxEngine) Rules() domain.RuleSet {
	return *te.rules.Load()
}

// SetRules atomically replaces the active rule set
func (te *TaxEngine) SetRules(rules domain.RuleSet) {
	te.rules.Store(&rules)
	te.Logger.Infof("tax rules switched to financial year %s", rules.FinancialYear)
}

// Compare runs ComputeTaxComparison against the active rule set
func (te *TaxEngine) Compare(grossIncome decimal.Decimal, claims domain.DeductionClaim) (domain.Comparison, error) {
	report, err := te.Report(grossIncome, claims)
	if err != nil {
		return domain.Comparison{}, err
	}
	return report.Comparison, nil
}

// Report runs BuildReport against the active rule set
func (te *TaxEngine) Report(grossIncome decimal.Decimal, claims domain.DeductionClaim) (*domain.ComparisonReport, error) {
	report, err := BuildReport(te.Rules(), grossIncome, claims)
	if err != nil {
		te.Logger.Warnf("rejected tax comparison: %v", err)
		return nil, err
	}
	te.Logger.Debugf("FY %s: old=%s new=%s -> %s",
		report.FinancialYear,
		report.Comparison.OldRegimeTax.String(),
		report.Comparison.NewRegimeTax.String(),
		report.Comparison.Recommendation)
	return report, nil
}
