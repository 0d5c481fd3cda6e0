package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/finflow/tax-advisor/internal/calculation"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/shopspring/decimal"
)

// Theme colors
var (
	colorBorder = lipgloss.Color("#282726")
	colorDim    = lipgloss.Color("#575653")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	savingsStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// ConsoleFormatter renders the comparison as bordered terminal tables.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *domain.ComparisonReport) ([]byte, error) {
	var b strings.Builder

	b.WriteString(renderTitle("TAX REGIME COMPARISON " + report.FinancialYear))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  %s %s\n\n", mutedStyle.Render("Gross income:"), valueStyle.Render(FormatCurrency(report.GrossIncome)))

	regimes := table{
		title:   "Regimes",
		headers: []string{"Regime", "Taxable income", "Tax", "Effective rate"},
		rows: [][]string{
			regimeRow(report.Old, report.Comparison.OldRegimeTax, report),
			regimeRow(report.New, report.Comparison.NewRegimeTax, report),
		},
	}
	b.WriteString(renderTable(regimes))

	if len(report.Deductions) > 0 {
		deductions := table{
			title:   "Deductions (old regime)",
			headers: []string{"Category", "Allowed"},
		}
		for _, cat := range report.Deductions.Categories() {
			amount := report.Deductions[cat]
			if amount.IsZero() {
				continue
			}
			deductions.rows = append(deductions.rows, []string{string(cat), FormatCurrency(amount)})
		}
		if len(deductions.rows) > 0 {
			deductions.rows = append(deductions.rows, []string{"---"}, []string{"Total", FormatCurrency(report.Deductions.Total())})
			b.WriteString("\n")
			b.WriteString(renderTable(deductions))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n", headerStyle.Render("Recommended:"), valueStyle.Render(string(report.Comparison.Recommendation)))
	fmt.Fprintf(&b, "  %s %s\n", mutedStyle.Render("You save:"), savingsStyle.Render(FormatCurrency(report.Comparison.Savings)))

	return []byte(b.String()), nil
}

func regimeRow(result domain.TaxResult, tax decimal.Decimal, report *domain.ComparisonReport) []string {
	name := string(result.Regime)
	if result.Regime == report.Comparison.Recommendation {
		name += " *"
	}
	return []string{
		name,
		FormatCurrency(result.TaxableIncome),
		FormatCurrency(tax),
		FormatPercentage(calculation.EffectiveRate(tax, report.GrossIncome)),
	}
}
