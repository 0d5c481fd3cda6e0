package main

import (
	"fmt"
	"os"

	"github.com/finflow/tax-advisor/internal/config"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/logging"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configPath string
	logLevel   string
	rulesFile  string
	year       string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "finflow",
		Short:        "Indian income-tax regime advisor",
		Long:         "Compare the old and new income-tax regimes, and serve AI-assisted tax and savings analyses over HTTP.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Settings file (default "+config.SettingsPath()+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides settings)")
	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", "", "Rules YAML file (default: built-in tables)")
	root.PersistentFlags().StringVar(&opts.year, "year", "", "Financial year to apply, e.g. 2025-26 (default: the rules file default)")

	root.AddCommand(
		newServeCmd(opts),
		newCompareCmd(opts),
		newRulesCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// loadSettings reads the settings file named by --config
func (o *globalOptions) loadSettings() (config.Settings, error) {
	return config.LoadSettings(o.configPath)
}

// logger builds a stderr logger at the flag level, falling back to the settings level
func (o *globalOptions) logger(settingsLevel string) logging.Logger {
	level := o.logLevel
	if level == "" {
		level = settingsLevel
	}
	return logging.NewStdLogger(os.Stderr, logging.ParseLevel(level))
}

// rulesPath prefers --rules over the settings file
func (o *globalOptions) rulesPath(settings config.Settings) string {
	if o.rulesFile != "" {
		return o.rulesFile
	}
	return settings.Rules.File
}

// selectRuleSet picks the --year rule set, or the file default
func selectRuleSet(rules *domain.RulesConfig, year string) (domain.RuleSet, error) {
	if year == "" {
		year = rules.DefaultFinancialYear
	}
	rs, ok := rules.Find(year)
	if !ok {
		return domain.RuleSet{}, fmt.Errorf("no rule set for financial year %s", year)
	}
	return rs, nil
}
