package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/logging"
	"github.com/finflow/tax-advisor/internal/repository"
)

// TransactionService stores and lists uploaded statement rows.
type TransactionService struct {
	repo   repository.TransactionRepository
	logger logging.Logger
	now    func() time.Time
}

// NewTransactionService creates a TransactionService.
func NewTransactionService(repo repository.TransactionRepository) *TransactionService {
	return &TransactionService{repo: repo, logger: logging.NopLogger{}, now: time.Now}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (s *TransactionService) SetLogger(l logging.Logger) {
	s.logger = logging.OrNop(l)
}

// Upload tags every row with userID and stores them. Rows without a date are
// stamped with the upload time.
func (s *TransactionService) Upload(ctx context.Context, userID string, txns []domain.Transaction) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrMissingUser
	}
	if len(txns) == 0 {
		return 0, ErrEmptyUpload
	}

	now := s.now().UTC()
	tagged := make([]domain.Transaction, len(txns))
	for i, t := range txns {
		t.UserID = userID
		if t.Date.IsZero() {
			t.Date = now
		}
		tagged[i] = t
	}

	if err := s.repo.SaveTransactions(ctx, tagged); err != nil {
		return 0, fmt.Errorf("saving transactions: %w", err)
	}
	s.logger.Infof("saved %d transactions for user %s", len(tagged), userID)
	return len(tagged), nil
}

// List returns every transaction for userID, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	txns, err := s.repo.ListTransactions(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, nil
}

// HasData reports whether userID has uploaded anything.
func (s *TransactionService) HasData(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrMissingUser
	}
	n, err := s.repo.CountTransactions(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("counting transactions: %w", err)
	}
	return n > 0, nil
}
