package output

import (
	"bytes"
	"encoding/csv"

	"github.com/finflow/tax-advisor/internal/domain"
)

// CSVFormatter writes one row per regime followed by one row per capped deduction.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(report *domain.ComparisonReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{"Section", "Name", "TaxableIncome", "Amount", "Recommended"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	regimes := []struct {
		result domain.TaxResult
		tax    string
	}{
		{report.Old, report.Comparison.OldRegimeTax.StringFixed(0)},
		{report.New, report.Comparison.NewRegimeTax.StringFixed(0)},
	}
	for _, r := range regimes {
		row := []string{
			"regime",
			string(r.result.Regime),
			r.result.TaxableIncome.StringFixed(2),
			r.tax,
			boolToString(r.result.Regime == report.Comparison.Recommendation),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	for _, cat := range report.Deductions.Categories() {
		row := []string{"deduction", string(cat), "", report.Deductions[cat].StringFixed(2), ""}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	if err := w.Write([]string{"savings", "", "", report.Comparison.Savings.StringFixed(0), ""}); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
