package main

import (
	"fmt"

	"github.com/finflow/tax-advisor/internal/config"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/spf13/cobra"
)

func newRulesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule tables as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := config.LoadRulesOrDefault(opts.rulesFile)
			if err != nil {
				return err
			}
			if opts.year != "" {
				rs, err := selectRuleSet(rules, opts.year)
				if err != nil {
					return err
				}
				rules = &domain.RulesConfig{DefaultFinancialYear: rs.FinancialYear, RuleSets: []domain.RuleSet{rs}}
			}

			data, err := config.MarshalRules(rules)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Check a rules file without applying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := config.NewRulesParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule set(s), default %s\n", args[0], len(rules.RuleSets), rules.DefaultFinancialYear)
			return nil
		},
	})
	return cmd
}
