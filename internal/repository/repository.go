// Package repository defines the storage contracts used by the services and
// provides SQLite, in-memory and Redis implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/finflow/tax-advisor/internal/domain"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("repository: not found")

// TransactionRepository stores uploaded bank transactions.
type TransactionRepository interface {
	SaveTransactions(ctx context.Context, txns []domain.Transaction) error
	// ListTransactions returns a user's transactions newest first.
	// A limit of zero or less returns all of them.
	ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, userID string) (int, error)
}

// TaxRecordRepository stores completed tax analyses.
type TaxRecordRepository interface {
	SaveTaxRecord(ctx context.Context, rec *domain.TaxRecord) error
	LatestTaxRecord(ctx context.Context, userID string) (*domain.TaxRecord, error)
	LatestTaxRecordSince(ctx context.Context, userID string, since time.Time) (*domain.TaxRecord, error)
}

// SavingsRecordRepository stores completed savings analyses.
type SavingsRecordRepository interface {
	SaveSavingsRecord(ctx context.Context, rec *domain.SavingsRecord) error
	LatestSavingsRecordSince(ctx context.Context, userID string, since time.Time) (*domain.SavingsRecord, error)
}

// LoanRepository stores user loans.
type LoanRepository interface {
	SaveLoan(ctx context.Context, loan *domain.Loan) error
	ListLoans(ctx context.Context, userID string) ([]domain.Loan, error)
}

// Store bundles every durable repository behind one handle.
type Store interface {
	TransactionRepository
	TaxRecordRepository
	SavingsRecordRepository
	LoanRepository
	Close() error
}

// CacheRepository is a string key/value cache with per-entry expiry.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
