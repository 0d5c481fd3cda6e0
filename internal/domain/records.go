package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one parsed bank-statement row belonging to a user
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Date        time.Time       `json:"date"`
}

// IsCredit reports whether the transaction brings money in
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// TaxRecord is a persisted tax analysis, reused for 24 hours
type TaxRecord struct {
	ID                string           `json:"id"`
	UserID            string           `json:"userId"`
	FinancialYear     string           `json:"financialYear"`
	TotalIncome       decimal.Decimal  `json:"totalIncome"`
	Deductions        CappedDeductions `json:"detectedDeductions"`
	Sources           []string         `json:"sources"`
	Comparison        Comparison       `json:"taxComparison"`
	SavingsSuggestion string           `json:"savingsSuggestion,omitempty"`
	TaxTips           []string         `json:"taxTips,omitempty"`
	Timestamp         time.Time        `json:"timestamp"`
}

// SavingsRecord is a persisted savings analysis, reused for 24 hours
type SavingsRecord struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	MonthlyIncome    decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpense   decimal.Decimal `json:"monthlyExpense"`
	CurrentSavings   decimal.Decimal `json:"currentSavings"`
	PotentialSavings decimal.Decimal `json:"potentialSavings"`
	WastefulSpends   []string        `json:"wastefulSpends"`
	AIAdvice         string          `json:"aiAdvice"`
	Timestamp        time.Time       `json:"timestamp"`
}

// LoanType enumerates the accepted loan kinds
type LoanType string

const (
	PersonalLoan  LoanType = "Personal"
	HomeLoan      LoanType = "Home"
	AutoLoan      LoanType = "Auto"
	CreditCard    LoanType = "Credit Card"
	EducationLoan LoanType = "Education"
)

// Valid reports whether t is one of the accepted loan kinds
func (t LoanType) Valid() bool {
	switch t {
	case PersonalLoan, HomeLoan, AutoLoan, CreditCard, EducationLoan:
		return true
	}
	return false
}

// Loan is an outstanding credit line recorded for a user
type Loan struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Lender      string          `json:"lender"`
	Type        LoanType        `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Outstanding decimal.Decimal `json:"outstanding"`
	StartDate   time.Time       `json:"startDate"`
	Status      string          `json:"status"`
}

// CreditHealth summarizes a user's credit standing
type CreditHealth struct {
	Score   int            `json:"score"`
	Factors map[string]int `json:"factors"`
	Loans   []Loan         `json:"loans"`
}
