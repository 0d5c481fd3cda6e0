package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu      sync.RWMutex
	txns    map[string][]domain.Transaction
	tax     map[string][]domain.TaxRecord
	savings map[string][]domain.SavingsRecord
	loans   map[string][]domain.Loan
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txns:    make(map[string][]domain.Transaction),
		tax:     make(map[string][]domain.TaxRecord),
		savings: make(map[string][]domain.SavingsRecord),
		loans:   make(map[string][]domain.Loan),
		now:     time.Now,
	}
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

// SaveTransactions stores txns, assigning missing IDs.
func (m *MemoryStore) SaveTransactions(ctx context.Context, txns []domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range txns {
		if txns[i].ID == "" {
			txns[i].ID = uuid.NewString()
		}
		m.txns[txns[i].UserID] = append(m.txns[txns[i].UserID], txns[i])
	}
	return nil
}

// ListTransactions returns a user's transactions newest first.
func (m *MemoryStore) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	m.mu.RLock()
	stored := m.txns[userID]
	result := make([]domain.Transaction, len(stored))
	copy(result, stored)
	m.mu.RUnlock()

	// reverse first so equal dates come back latest-inserted first
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountTransactions returns how many transactions a user has.
func (m *MemoryStore) CountTransactions(ctx context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txns[userID]), nil
}

// SaveTaxRecord stores rec, assigning an ID and timestamp when missing.
func (m *MemoryStore) SaveTaxRecord(ctx context.Context, rec *domain.TaxRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tax[rec.UserID] = append(m.tax[rec.UserID], *rec)
	return nil
}

// LatestTaxRecord returns the newest record for a user.
func (m *MemoryStore) LatestTaxRecord(ctx context.Context, userID string) (*domain.TaxRecord, error) {
	return m.LatestTaxRecordSince(ctx, userID, time.Time{})
}

// LatestTaxRecordSince returns the newest record no older than since.
func (m *MemoryStore) LatestTaxRecordSince(ctx context.Context, userID string, since time.Time) (*domain.TaxRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *domain.TaxRecord
	for i := range m.tax[userID] {
		rec := &m.tax[userID][i]
		if rec.Timestamp.Before(since) {
			continue
		}
		if latest == nil || !rec.Timestamp.Before(latest.Timestamp) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

// SaveSavingsRecord stores rec, assigning an ID and timestamp when missing.
func (m *MemoryStore) SaveSavingsRecord(ctx context.Context, rec *domain.SavingsRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.savings[rec.UserID] = append(m.savings[rec.UserID], *rec)
	return nil
}

// LatestSavingsRecordSince returns the newest savings record no older than since.
func (m *MemoryStore) LatestSavingsRecordSince(ctx context.Context, userID string, since time.Time) (*domain.SavingsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *domain.SavingsRecord
	for i := range m.savings[userID] {
		rec := &m.savings[userID][i]
		if rec.Timestamp.Before(since) {
			continue
		}
		if latest == nil || !rec.Timestamp.Before(latest.Timestamp) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

// SaveLoan stores loan, assigning an ID when missing.
func (m *MemoryStore) SaveLoan(ctx context.Context, loan *domain.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.UserID] = append(m.loans[loan.UserID], *loan)
	return nil
}

// ListLoans returns a user's loans in insertion order.
func (m *MemoryStore) ListLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.Loan, len(m.loans[userID]))
	copy(result, m.loans[userID])
	return result, nil
}
