package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/repository"
)

const (
	baselineCreditScore = 750
	defaultLoanStatus   = "Active"
)

// CreditService records loans and reports a simplified credit standing.
type CreditService struct {
	loans repository.LoanRepository
	now   func() time.Time
}

// NewCreditService creates a CreditService.
func NewCreditService(loans repository.LoanRepository) *CreditService {
	return &CreditService{loans: loans, now: time.Now}
}

// AddLoan validates and stores loan, defaulting its status and start date.
func (s *CreditService) AddLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error) {
	loan.UserID = strings.TrimSpace(loan.UserID)
	if loan.UserID == "" {
		return nil, ErrMissingUser
	}
	if !loan.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidLoan, loan.Type)
	}
	if loan.Amount.IsNegative() || loan.Outstanding.IsNegative() {
		return nil, fmt.Errorf("%w: amounts cannot be negative", ErrInvalidLoan)
	}
	if loan.Status == "" {
		loan.Status = defaultLoanStatus
	}
	if loan.StartDate.IsZero() {
		loan.StartDate = s.now().UTC()
	}

	if err := s.loans.SaveLoan(ctx, &loan); err != nil {
		return nil, fmt.Errorf("saving loan: %w", err)
	}
	return &loan, nil
}

// Health returns the baseline score and factors plus the user's loans.
func (s *CreditService) Health(ctx context.Context, userID string) (*domain.CreditHealth, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	loans, err := s.loans.ListLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}
	if loans == nil {
		loans = []domain.Loan{}
	}
	return &domain.CreditHealth{
		Score: baselineCreditScore,
		Factors: map[string]int{
			"onTimePayments":    100,
			"creditUtilization": 10,
			"creditAgeYears":    2,
		},
		Loans: loans,
	}, nil
}
