package output

import (
	"encoding/json"

	"github.com/finflow/tax-advisor/internal/domain"
)

// JSONFormatter serializes the comparison report as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(report *domain.ComparisonReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
