package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finflow/tax-advisor/internal/advisor"
	"github.com/finflow/tax-advisor/internal/calculation"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/logging"
	"github.com/finflow/tax-advisor/internal/repository"
	"github.com/finflow/tax-advisor/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// Origin says where an analysis result came from
type Origin string

const (
	OriginCache       Origin = "cache"
	OriginRecord      Origin = "record"
	OriginAdvisor     Origin = "advisor"
	OriginFallback    Origin = "fallback"
	OriginPlaceholder Origin = "placeholder"
)

// TaxAnalysis is the outcome of AnalyzeTax.
// Degraded results were computed without the advisor and are never stored.
type TaxAnalysis struct {
	Record   domain.TaxRecord
	Origin   Origin
	Degraded bool
}

// TaxService runs AI-assisted tax analyses and direct regime comparisons.
type TaxService struct {
	engine  *calculation.TaxEngine
	txns    repository.TransactionRepository
	records repository.TaxRecordRepository
	cache   repository.CacheRepository
	advisor advisor.Generator
	opts    Options
	logger  logging.Logger
	now     func() time.Time
}

// NewTaxService creates a TaxService. cache may be nil.
func NewTaxService(
	engine *calculation.TaxEngine,
	txns repository.TransactionRepository,
	records repository.TaxRecordRepository,
	cache repository.CacheRepository,
	gen advisor.Generator,
	opts Options,
) *TaxService {
	return &TaxService{
		engine:  engine,
		txns:    txns,
		records: records,
		cache:   cache,
		advisor: gen,
		opts:    opts.withDefaults(),
		logger:  logging.NopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (s *TaxService) SetLogger(l logging.Logger) {
	s.logger = logging.OrNop(l)
}

// Engine returns the engine used for computations.
func (s *TaxService) Engine() *calculation.TaxEngine {
	return s.engine
}

func taxCacheKey(userID string) string {
	return "tax:" + userID
}

// AnalyzeTax returns a fresh analysis for userID, reusing a cached or stored
// one younger than the freshness window before asking the advisor.
func (s *TaxService) AnalyzeTax(ctx context.Context, userID string) (*TaxAnalysis, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}

	if rec, ok := s.fromCache(ctx, userID); ok {
		s.logger.Debugf("tax analysis for %s served from cache", userID)
		return &TaxAnalysis{Record: *rec, Origin: OriginCache}, nil
	}

	now := s.now().UTC()
	rec, err := s.records.LatestTaxRecordSince(ctx, userID, dateutil.FreshnessCutoff(now, s.opts.Freshness))
	switch {
	case err == nil:
		s.logger.Debugf("tax analysis for %s served from stored record %s", userID, rec.ID)
		s.storeInCache(ctx, rec, s.opts.Freshness-now.Sub(rec.Timestamp))
		return &TaxAnalysis{Record: *rec, Origin: OriginRecord}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("looking up tax record: %w", err)
	}

	txns, err := s.txns.ListTransactions(ctx, userID, s.opts.TaxFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, ErrNoTransactions
	}

	findings, err := s.askAdvisor(ctx, txns)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warnf("advisor unavailable for %s, using credit totals: %v", userID, err)
		return s.fallback(userID, txns, now)
	}

	report, err := s.engine.Report(findings.TotalIncome, findings.Claims())
	if err != nil {
		return nil, err
	}

	out := &domain.TaxRecord{
		UserID:            userID,
		FinancialYear:     report.FinancialYear,
		TotalIncome:       report.GrossIncome,
		Deductions:        report.Deductions,
		Sources:           findings.Findings,
		Comparison:        report.Comparison,
		SavingsSuggestion: findings.SavingsSuggestion,
		TaxTips:           findings.TaxTips,
		Timestamp:         now,
	}
	if err := s.records.SaveTaxRecord(ctx, out); err != nil {
		s.logger.Errorf("failed to save tax record for %s: %v", userID, err)
	}
	s.storeInCache(ctx, out, s.opts.Freshness)

	s.logger.Infof("tax analysis for %s: recommend %s (savings %s)",
		userID, out.Comparison.Recommendation, out.Comparison.Savings)
	return &TaxAnalysis{Record: *out, Origin: OriginAdvisor}, nil
}

func (s *TaxService) askAdvisor(ctx context.Context, txns []domain.Transaction) (*advisor.TaxFindings, error) {
	if s.advisor == nil {
		return nil, fmt.Errorf("%w: no advisor configured", ErrAdvisorUnavailable)
	}
	reply, err := s.advisor.Generate(ctx, advisor.TaxPrompt(txns))
	if err != nil {
		return nil, err
	}
	return advisor.ParseTaxReply(reply)
}

// fallback computes a comparison from the sum of credits with no deductions
func (s *TaxService) fallback(userID string, txns []domain.Transaction, now time.Time) (*TaxAnalysis, error) {
	income := decimal.Zero
	for _, t := range txns {
		if t.IsCredit() {
			income = income.Add(t.Amount)
		}
	}

	report, err := s.engine.Report(income, nil)
	if err != nil {
		return nil, err
	}

	return &TaxAnalysis{
		Record: domain.TaxRecord{
			UserID:        userID,
			FinancialYear: report.FinancialYear,
			TotalIncome:   report.GrossIncome,
			Deductions:    report.Deductions,
			Sources:       []string{},
			Comparison:    report.Comparison,
			Timestamp:     now,
		},
		Origin:   OriginFallback,
		Degraded: true,
	}, nil
}

func (s *TaxService) fromCache(ctx context.Context, userID string) (*domain.TaxRecord, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok := s.cache.Get(ctx, taxCacheKey(userID))
	if !ok {
		return nil, false
	}
	var rec domain.TaxRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.Warnf("discarding unreadable cache entry for %s: %v", userID, err)
		return nil, false
	}
	return &rec, true
}

func (s *TaxService) storeInCache(ctx context.Context, rec *domain.TaxRecord, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warnf("failed to encode tax record for cache: %v", err)
		return
	}
	if err := s.cache.Set(ctx, taxCacheKey(rec.UserID), string(raw), ttl); err != nil {
		s.logger.Warnf("failed to cache tax record for %s: %v", rec.UserID, err)
	}
}

// Compare runs the regime comparison directly on the active rules.
func (s *TaxService) Compare(grossIncome decimal.Decimal, claims domain.DeductionClaim) (*domain.ComparisonReport, error) {
	return s.engine.Report(grossIncome, claims)
}

// LatestRecord returns the most recent stored analysis for userID.
func (s *TaxService) LatestRecord(ctx context.Context, userID string) (*domain.TaxRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	rec, err := s.records.LatestTaxRecord(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("looking up tax record: %w", err)
	}
	return rec, nil
}
