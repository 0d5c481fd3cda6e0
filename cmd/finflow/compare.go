package main

import (
	"fmt"
	"strings"

	"github.com/finflow/tax-advisor/internal/calculation"
	"github.com/finflow/tax-advisor/internal/config"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/output"
	"github.com/finflow/tax-advisor/pkg/money"
	"github.com/spf13/cobra"
)

func newCompareCmd(opts *globalOptions) *cobra.Command {
	var (
		income string
		claims []string
		format string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare both regimes for an income and a set of deduction claims",
		Example: `  finflow compare --income 12,00,000 --claim 80c=150000 --claim 80d=25000
  finflow compare --income 900000 --format json --year 2025-26`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gross, err := money.Parse(income)
			if err != nil {
				return fmt.Errorf("invalid --income %q: %w", income, err)
			}
			claim, err := parseClaims(claims)
			if err != nil {
				return err
			}

			rules, err := config.LoadRulesOrDefault(opts.rulesFile)
			if err != nil {
				return err
			}
			ruleSet, err := selectRuleSet(rules, opts.year)
			if err != nil {
				return err
			}

			report, err := calculation.BuildReport(ruleSet, gross.Decimal, claim)
			if err != nil {
				return err
			}
			return output.WriteFormatted(cmd.OutOrStdout(), report, format)
		},
	}

	cmd.Flags().StringVar(&income, "income", "", "Gross annual income in rupees")
	cmd.Flags().StringArrayVar(&claims, "claim", nil, "Deduction claim as category=amount, repeatable (80c, 80d, 24b, 80tta, 80ccd, 80g, 80e, hra)")
	cmd.Flags().StringVarP(&format, "format", "f", "console", "Output format: "+strings.Join(output.AvailableFormatterNames(), ", "))
	_ = cmd.MarkFlagRequired("income")
	return cmd
}

// parseClaims turns category=amount pairs into a claim; repeated categories add up
func parseClaims(pairs []string) (domain.DeductionClaim, error) {
	claim := make(domain.DeductionClaim, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --claim %q: want category=amount", pair)
		}
		category := domain.DeductionCategory(strings.ToLower(strings.TrimSpace(key)))
		if !category.IsKnown() {
			return nil, fmt.Errorf("invalid --claim %q: unknown category %q", pair, category)
		}
		amount, err := money.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("invalid --claim %q: %w", pair, err)
		}
		claim[category] = claim[category].Add(amount.Decimal)
	}
	return claim, nil
}
