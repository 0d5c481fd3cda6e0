package config

import (
	"fmt"
	"os"

	"github.com/finflow/tax-advisor/internal/calculation"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/pkg/dateutil"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RulesParser handles parsing of tax rules files
type RulesParser struct{}

// NewRulesParser creates a new rules parser
func NewRulesParser() *RulesParser {
	return &RulesParser{}
}

// LoadFromFile loads tax rules from a YAML file
func (rp *RulesParser) LoadFromFile(filename string) (*domain.RulesConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return rp.Parse(data)
}

// Parse decodes and validates YAML rules
func (rp *RulesParser) Parse(data []byte) (*domain.RulesConfig, error) {
	var rules domain.RulesConfig
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := rp.ValidateRules(&rules); err != nil {
		return nil, fmt.Errorf("rules validation failed: %w", err)
	}

	return &rules, nil
}

// ValidateRules validates the loaded rules
func (rp *RulesParser) ValidateRules(rules *domain.RulesConfig) error {
	if len(rules.RuleSets) == 0 {
		return fmt.Errorf("no rule sets provided")
	}

	seen := make(map[string]bool, len(rules.RuleSets))
	for i := range rules.RuleSets {
		rs := &rules.RuleSets[i]
		if err := rp.validateRuleSet(rs); err != nil {
			return fmt.Errorf("rule set %d (%s) validation failed: %w", i, rs.FinancialYear, err)
		}
		if seen[rs.FinancialYear] {
			return fmt.Errorf("duplicate rule set for financial year %s", rs.FinancialYear)
		}
		seen[rs.FinancialYear] = true
	}

	if rules.DefaultFinancialYear == "" {
		return fmt.Errorf("default financial year is required")
	}
	if !seen[rules.DefaultFinancialYear] {
		return fmt.Errorf("default financial year %s has no rule set", rules.DefaultFinancialYear)
	}

	return nil
}

// validateRuleSet validates a single financial year's tables
func (rp *RulesParser) validateRuleSet(rs *domain.RuleSet) error {
	if _, _, err := dateutil.ParseFinancialYear(rs.FinancialYear); err != nil {
		return err
	}
	if err := rp.validateRegime("new regime", &rs.NewRegime); err != nil {
		return err
	}
	if err := rp.validateRegime("old regime", &rs.OldRegime); err != nil {
		return err
	}

	for category, ceiling := range rs.DeductionCeilings {
		if !category.IsKnown() {
			return fmt.Errorf("unknown deduction category %q", category)
		}
		if ceiling != nil && ceiling.IsNegative() {
			return fmt.Errorf("ceiling for %s cannot be negative", category)
		}
	}
	for _, category := range domain.KnownCategories {
		if _, ok := rs.DeductionCeilings[category]; !ok {
			return fmt.Errorf("deduction ceiling for %s is required (use null for uncapped)", category)
		}
	}

	return nil
}

// validateRegime validates a regime's standard deduction and slab table
func (rp *RulesParser) validateRegime(name string, rules *domain.RegimeRules) error {
	if rules.StandardDeduction.IsNegative() {
		return fmt.Errorf("%s standard deduction cannot be negative", name)
	}
	if len(rules.Bands) == 0 {
		return fmt.Errorf("%s has no bands", name)
	}
	if !rules.Bands[0].Floor.IsZero() {
		return fmt.Errorf("%s first band must start at 0", name)
	}
	for i, band := range rules.Bands {
		if band.Rate.LessThan(decimal.Zero) || band.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s band %d rate must be between 0 and 1", name, i)
		}
		if i > 0 && !band.Floor.GreaterThan(rules.Bands[i-1].Floor) {
			return fmt.Errorf("%s band floors must strictly increase (band %d)", name, i)
		}
	}
	return nil
}

// DefaultRules returns the built-in rules with a single default rule set
func DefaultRules() *domain.RulesConfig {
	return &domain.RulesConfig{
		DefaultFinancialYear: calculation.DefaultFinancialYear,
		RuleSets:             []domain.RuleSet{calculation.DefaultRuleSet()},
	}
}

// LoadRulesOrDefault loads rules from filename, or the built-in rules when
// filename is empty.
func LoadRulesOrDefault(filename string) (*domain.RulesConfig, error) {
	if filename == "" {
		return DefaultRules(), nil
	}
	return NewRulesParser().LoadFromFile(filename)
}

// MarshalRules renders rules back to YAML
func MarshalRules(rules *domain.RulesConfig) ([]byte, error) {
	return yaml.Marshal(rules)
}
