package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finflow/tax-advisor/internal/advisor"
	"github.com/finflow/tax-advisor/internal/calculation"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdvisor replies with a fixed text or error and counts calls
type fakeAdvisor struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeAdvisor) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeAdvisor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const taxReply = "```json\n" + `{"total_income": 1000000, "deductions_80c": 150000, "deductions_80d": 25000,
"findings": ["LIC", "Star Health"], "savings_suggestion": "Consider NPS", "tax_tips": ["Keep receipts"]}` + "\n```"

var fixedNow = time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC)

func seedTransactions(t *testing.T, store repository.TransactionRepository, userID string) {
	t.Helper()
	require.NoError(t, store.SaveTransactions(context.Background(), []domain.Transaction{
		{UserID: userID, Description: "Salary", Amount: decimal.NewFromInt(600000), Date: fixedNow.AddDate(0, -2, 0)},
		{UserID: userID, Description: "FD Interest", Amount: decimal.NewFromInt(20000), Date: fixedNow.AddDate(0, -1, 0)},
		{UserID: userID, Description: "LIC Premium", Amount: decimal.NewFromInt(-5000), Date: fixedNow.AddDate(0, 0, -3)},
	}))
}

type taxFixture struct {
	svc   *TaxService
	store *repository.MemoryStore
	cache *repository.MemoryCache
	ai    *fakeAdvisor
}

func newTaxFixture(ai *fakeAdvisor) *taxFixture {
	store := repository.NewMemoryStore()
	cache := repository.NewMemoryCache()
	svc := NewTaxService(calculation.NewTaxEngine(), store, store, cache, ai, DefaultOptions())
	svc.now = func() time.Time { return fixedNow }
	return &taxFixture{svc: svc, store: store, cache: cache, ai: ai}
}

func TestAnalyzeTax_AdvisorResultIsStoredAndReused(t *testing.T) {
	f := newTaxFixture(&fakeAdvisor{reply: taxReply})
	seedTransactions(t, f.store, "u1")
	ctx := context.Background()

	first, err := f.svc.AnalyzeTax(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, OriginAdvisor, first.Origin)
	assert.False(t, first.Degraded)
	rec := first.Record
	assert.True(t, rec.TotalIncome.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, rec.Comparison.OldRegimeTax.Equal(decimal.NewFromInt(67500)))
	assert.True(t, rec.Comparison.NewRegimeTax.Equal(decimal.NewFromInt(32500)))
	assert.True(t, rec.Comparison.Savings.Equal(decimal.NewFromInt(35000)))
	assert.Equal(t, domain.NewRegime, rec.Comparison.Recommendation)
	assert.Equal(t, []string{"LIC", "Star Health"}, rec.Sources)
	assert.Equal(t, "Consider NPS", rec.SavingsSuggestion)
	assert.Equal(t, calculation.DefaultFinancialYear, rec.FinancialYear)
	assert.Contains(t, f.ai.prompts[0], "Salary: 600000")

	stored, err := f.store.LatestTaxRecord(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, stored.Comparison.Savings.Equal(decimal.NewFromInt(35000)))

	second, err := f.svc.AnalyzeTax(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, OriginCache, second.Origin)
	assert.Equal(t, 1, f.ai.Calls())
	assert.True(t, second.Record.Comparison.OldRegimeTax.Equal(decimal.NewFromInt(67500)))
	assert.Equal(t, rec.ID, second.Record.ID)
}

func TestAnalyzeTax_FreshRecordSkipsAdvisor(t *testing.T) {
	f := newTaxFixture(&fakeAdvisor{reply: taxReply})
	ctx := context.Background()

	require.NoError(t, f.store.SaveTaxRecord(ctx, &domain.TaxRecord{
		UserID:      "u1",
		TotalIncome: decimal.NewFromInt(500000),
		Comparison:  domain.Comparison{Recommendation: domain.OldRegime},
		Timestamp:   fixedNow.Add(-23 * time.Hour),
	}))

	got, err := f.svc.AnalyzeTax(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, OriginRecord, got.Origin)
	assert.Equal(t, domain.OldRegime, got.Record.Comparison.Recommendation)
	assert.Zero(t, f.ai.Calls())

	// the stored record now also sits in the hot cache
	_, ok := f.cache.Get(ctx, "tax:u1")
	assert.True(t, ok)
}

func TestAnalyzeTax_StaleRecordIsRecomputed(t *testing.T) {
	f := newTaxFixture(&fakeAdvisor{reply: taxReply})
	seedTransactions(t, f.store, "u1")
	ctx := context.Background()

	require.NoError(t, f.store.SaveTaxRecord(ctx, &domain.TaxRecord{
		UserID:    "u1",
		Timestamp: fixedNow.Add(-25 * time.Hour),
	}))

	got, err := f.svc.AnalyzeTax(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, OriginAdvisor, got.Origin)
	assert.Equal(t, 1, f.ai.Calls())
}

func TestAnalyzeTax_NoTransactions(t *testing.T) {
	f := newTaxFixture(&fakeAdvisor{reply: taxReply})

	_, err := f.svc.AnalyzeTax(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNoTransactions)
	assert.Zero(t, f.ai.Calls())
}

func TestAnalyzeTax_MissingUser(t *testing.T) {
	f := newTaxFixture(&fakeAdvisor{reply: taxReply})

	_, err := f.svc.AnalyzeTax(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestAnalyzeTax_DegradesWhenAdvisorFails(t *testing.T) {
	tests := []struct {
		name string
		ai   *fakeAdvisor
	}{
		{"Rate limits exhausted", &fakeAdvisor{err: advisor.ErrRetriesExhausted}},
		{"Malformed reply", &fakeAdvisor{reply: "Sorry, I cannot help with that."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaxFixture(tt.ai)
			seedTransactions(t, f.store, "u1")
			ctx := context.Background()

			got, err := f.svc.AnalyzeTax(ctx, "u1")
			require.NoError(t, err)

			assert.True(t, got.Degraded)
			assert.Equal(t, OriginFallback, got.Origin)
			// 600000 + 20000 in credits, the debit is ignored
			assert.True(t, got.Record.TotalIncome.Equal(decimal.NewFromInt(620000)))
			assert.True(t, got.Record.Deductions.Total().IsZero())
			assert.True(t, got.Record.Comparison.NewRegimeTax.Equal(decimal.NewFromInt(7250)))
			assert.True(t, got.Record.Comparison.OldRegimeTax.Equal(decimal.NewFromInt(26500)))
			assert.Equal(t, domain.NewRegime, got.Record.Comparison.Recommendation)

			_, err = f.store.LatestTaxRecord(ctx, "u1")
			assert.ErrorIs(t, err, repository.ErrNotFound)
			assert.Zero(t, f.cache.Len())
		})
	}
}

func TestAnalyzeTax_CancelledContextIsNotDegraded(t *testing.T) {
	f := newTaxFixture(&fakeAdvisor{err: context.Canceled})
	seedTransactions(t, f.store, "u1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.AnalyzeTax(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTaxService_Compare(t *testing.T) {
	f := newTaxFixture(nil)

	report, err := f.svc.Compare(decimal.NewFromInt(800000), domain.DeductionClaim{
		domain.Section80C:   decimal.NewFromInt(150000),
		domain.Section80D:   decimal.NewFromInt(25000),
		domain.Section24B:   decimal.NewFromInt(200000),
		domain.HRAExemption: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OldRegime, report.Comparison.Recommendation)
	assert.True(t, report.Comparison.Savings.Equal(decimal.NewFromInt(15000)))

	_, err = f.svc.Compare(decimal.NewFromInt(-1), nil)
	assert.ErrorIs(t, err, calculation.ErrInvalidInput)
}

func TestTaxService_LatestRecord(t *testing.T) {
	f := newTaxFixture(&fakeAdvisor{reply: taxReply})
	ctx := context.Background()

	_, err := f.svc.LatestRecord(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoRecord)

	seedTransactions(t, f.store, "u1")
	analysis, err := f.svc.AnalyzeTax(ctx, "u1")
	require.NoError(t, err)

	rec, err := f.svc.LatestRecord(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, analysis.Record.ID, rec.ID)
}

const savingsReply = `{"monthly_income": 85000, "monthly_expense": 61000, "potential_savings": 7000,
"wasteful_spends": ["Food delivery", "Unused subscriptions"], "ai_advice": "Cancel two subscriptions"}`

func newSavingsService(ai advisor.Generator) (*SavingsService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	svc := NewSavingsService(store, store, ai, DefaultOptions())
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestAnalyzeSavings_Placeholder(t *testing.T) {
	ai := &fakeAdvisor{reply: savingsReply}
	svc, store := newSavingsService(ai)
	ctx := context.Background()

	got, err := svc.AnalyzeSavings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, OriginPlaceholder, got.Origin)
	assert.Equal(t, PlaceholderAdvice, got.Record.AIAdvice)
	assert.Zero(t, ai.Calls())

	_, err = store.LatestSavingsRecordSince(ctx, "u1", time.Time{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAnalyzeSavings_StoresAndReuses(t *testing.T) {
	ai := &fakeAdvisor{reply: savingsReply}
	svc, store := newSavingsService(ai)
	seedTransactions(t, store, "u1")
	ctx := context.Background()

	got, err := svc.AnalyzeSavings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, OriginAdvisor, got.Origin)
	assert.True(t, got.Record.CurrentSavings.Equal(decimal.NewFromInt(24000)))
	assert.Equal(t, []string{"Food delivery", "Unused subscriptions"}, got.Record.WastefulSpends)
	assert.Contains(t, ai.prompts[0], "(Uncategorized)")

	again, err := svc.AnalyzeSavings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, OriginRecord, again.Origin)
	assert.Equal(t, got.Record.ID, again.Record.ID)
	assert.Equal(t, 1, ai.Calls())
}

func TestAnalyzeSavings_AdvisorFailure(t *testing.T) {
	for _, ai := range []*fakeAdvisor{
		{err: advisor.ErrUnauthorized},
		{reply: "not json"},
	} {
		svc, store := newSavingsService(ai)
		seedTransactions(t, store, "u1")

		_, err := svc.AnalyzeSavings(context.Background(), "u1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAdvisorUnavailable))
	}
}

func TestTransactionService(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewTransactionService(store)
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	_, err := svc.Upload(ctx, "u1", nil)
	assert.ErrorIs(t, err, ErrEmptyUpload)
	_, err = svc.Upload(ctx, "", []domain.Transaction{{Description: "x"}})
	assert.ErrorIs(t, err, ErrMissingUser)

	has, err := svc.HasData(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, has)

	n, err := svc.Upload(ctx, "u1", []domain.Transaction{
		{UserID: "someone-else", Description: "Salary", Amount: decimal.NewFromInt(100000), Date: fixedNow.AddDate(0, 0, -10)},
		{Description: "Coffee", Amount: decimal.NewFromInt(-250)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	has, err = svc.HasData(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, has)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Coffee", list[0].Description)
	assert.True(t, list[0].Date.Equal(fixedNow))
	for _, tx := range list {
		assert.Equal(t, "u1", tx.UserID)
	}

	empty, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCreditService(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCreditService(store)
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	_, err := svc.AddLoan(ctx, domain.Loan{UserID: "u1", Type: "Payday"})
	assert.ErrorIs(t, err, ErrInvalidLoan)
	_, err = svc.AddLoan(ctx, domain.Loan{UserID: "u1", Type: domain.HomeLoan, Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidLoan)
	_, err = svc.AddLoan(ctx, domain.Loan{Type: domain.HomeLoan})
	assert.ErrorIs(t, err, ErrMissingUser)

	loan, err := svc.AddLoan(ctx, domain.Loan{
		UserID:      "u1",
		Lender:      "SBI",
		Type:        domain.EducationLoan,
		Amount:      decimal.NewFromInt(800000),
		Outstanding: decimal.NewFromInt(650000),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, loan.ID)
	assert.Equal(t, "Active", loan.Status)
	assert.True(t, loan.StartDate.Equal(fixedNow))

	health, err := svc.Health(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 750, health.Score)
	assert.Equal(t, map[string]int{"onTimePayments": 100, "creditUtilization": 10, "creditAgeYears": 2}, health.Factors)
	require.Len(t, health.Loans, 1)
	assert.Equal(t, "SBI", health.Loans[0].Lender)

	none, err := svc.Health(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, none.Loans)
}
