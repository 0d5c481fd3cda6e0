package advisor

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/shopspring/decimal"
)

// jsonObject matches from the first "{" to the last "}", spanning lines
var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// TaxFindings is the structured part of a tax analysis reply
type TaxFindings struct {
	TotalIncome       decimal.Decimal `json:"total_income"`
	Deductions80C     decimal.Decimal `json:"deductions_80c"`
	Deductions80D     decimal.Decimal `json:"deductions_80d"`
	Deductions24B     decimal.Decimal `json:"deductions_24b"`
	Deductions80CCD   decimal.Decimal `json:"deductions_80ccd"`
	Deductions80G     decimal.Decimal `json:"deductions_80g"`
	Deductions80TTA   decimal.Decimal `json:"deductions_80tta"`
	Deductions80E     decimal.Decimal `json:"deductions_80e"`
	HRAExemption      decimal.Decimal `json:"hra_exemption"`
	Findings          []string        `json:"findings"`
	SavingsSuggestion string          `json:"savings_suggestion"`
	TaxTips           []string        `json:"tax_tips"`
}

// Claims converts the reported deductions into a claim map for the capper
func (f TaxFindings) Claims() domain.DeductionClaim {
	return domain.DeductionClaim{
		domain.Section80C:   f.Deductions80C,
		domain.Section80D:   f.Deductions80D,
		domain.Section24B:   f.Deductions24B,
		domain.Section80CCD: f.Deductions80CCD,
		domain.Section80G:   f.Deductions80G,
		domain.Section80TTA: f.Deductions80TTA,
		domain.Section80E:   f.Deductions80E,
		domain.HRAExemption: f.HRAExemption,
	}
}

// SavingsFindings is the structured part of a savings analysis reply
type SavingsFindings struct {
	MonthlyIncome    decimal.Decimal `json:"monthly_income"`
	MonthlyExpense   decimal.Decimal `json:"monthly_expense"`
	PotentialSavings decimal.Decimal `json:"potential_savings"`
	WastefulSpends   []string        `json:"wasteful_spends"`
	AIAdvice         string          `json:"ai_advice"`
}

// CurrentSavings is monthly income less monthly expense
func (f SavingsFindings) CurrentSavings() decimal.Decimal {
	return f.MonthlyIncome.Sub(f.MonthlyExpense)
}

// ExtractJSON returns the outermost {...} block of a free-form reply.
// Markdown code fences around the object are tolerated.
func ExtractJSON(reply string) (string, error) {
	block := jsonObject.FindString(reply)
	if block == "" {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedReply)
	}
	return block, nil
}

// ParseTaxReply decodes a tax analysis reply
func ParseTaxReply(reply string) (*TaxFindings, error) {
	var findings TaxFindings
	if err := decodeReply(reply, &findings); err != nil {
		return nil, err
	}
	if findings.TotalIncome.IsNegative() {
		return nil, fmt.Errorf("%w: negative total_income %s", ErrMalformedReply, findings.TotalIncome)
	}
	return &findings, nil
}

// ParseSavingsReply decodes a savings analysis reply
func ParseSavingsReply(reply string) (*SavingsFindings, error) {
	var findings SavingsFindings
	if err := decodeReply(reply, &findings); err != nil {
		return nil, err
	}
	return &findings, nil
}

func decodeReply(reply string, v any) error {
	block, err := ExtractJSON(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}
