package advisor

import (
	"fmt"
	"strings"

	"github.com/finflow/tax-advisor/internal/domain"
)

const taxReplyShape = `{ "total_income": number, "deductions_80c": number, "deductions_80d": number, ` +
	`"deductions_24b": number, "deductions_80ccd": number, "deductions_80g": number, ` +
	`"deductions_80tta": number, "deductions_80e": number, "hra_exemption": number, ` +
	`"findings": ["strings"], "savings_suggestion": "string", "tax_tips": ["strings"] }`

const savingsReplyShape = `{ "monthly_income": number, "monthly_expense": number, ` +
	`"potential_savings": number, "wasteful_spends": ["string"], "ai_advice": "string" }`

// TaxPrompt asks the model to read income and deduction evidence from txns
func TaxPrompt(txns []domain.Transaction) string {
	var b strings.Builder
	b.WriteString("Act as an Indian tax advisor. Analyze these bank transactions:\n")
	for _, t := range txns {
		fmt.Fprintf(&b, "%s: %s\n", t.Description, t.Amount.String())
	}
	b.WriteString("\nCalculate total_income as the sum of salary and other credits. ")
	b.WriteString("Identify deductions under 80C (PPF, LIC, ELSS, EPF), 80D (medical insurance), ")
	b.WriteString("24B (home-loan interest), 80CCD (NPS), 80G (donations), 80TTA (savings interest), ")
	b.WriteString("80E (education-loan interest) and HRA. List the sources you found.\n")
	b.WriteString("Return strictly valid JSON: ")
	b.WriteString(taxReplyShape)
	return b.String()
}

// SavingsPrompt asks the model for monthly spending figures and advice
func SavingsPrompt(txns []domain.Transaction) string {
	var b strings.Builder
	b.WriteString("Act as a personal finance advisor. Analyze these bank transactions:\n")
	for _, t := range txns {
		category := t.Category
		if category == "" {
			category = "Uncategorized"
		}
		fmt.Fprintf(&b, "%s: %s (%s)\n", t.Description, t.Amount.String(), category)
	}
	b.WriteString("\nReturn strictly valid JSON: ")
	b.WriteString(savingsReplyShape)
	return b.String()
}
