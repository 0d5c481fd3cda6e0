package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finflow/tax-advisor/internal/advisor"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/logging"
	"github.com/finflow/tax-advisor/internal/repository"
	"github.com/finflow/tax-advisor/pkg/dateutil"
)

// PlaceholderAdvice is returned to users with no transactions yet
const PlaceholderAdvice = "Start spending to get advice!"

// SavingsAnalysis is the outcome of AnalyzeSavings
type SavingsAnalysis struct {
	Record domain.SavingsRecord
	Origin Origin
}

// SavingsService produces AI savings advice from recent spending.
type SavingsService struct {
	txns    repository.TransactionRepository
	records repository.SavingsRecordRepository
	advisor advisor.Generator
	opts    Options
	logger  logging.Logger
	now     func() time.Time
}

// NewSavingsService creates a SavingsService.
func NewSavingsService(
	txns repository.TransactionRepository,
	records repository.SavingsRecordRepository,
	gen advisor.Generator,
	opts Options,
) *SavingsService {
	return &SavingsService{
		txns:    txns,
		records: records,
		advisor: gen,
		opts:    opts.withDefaults(),
		logger:  logging.NopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger; nil restores the no-op logger.
func (s *SavingsService) SetLogger(l logging.Logger) {
	s.logger = logging.OrNop(l)
}

// AnalyzeSavings returns savings advice for userID, reusing a stored record
// younger than the freshness window.
func (s *SavingsService) AnalyzeSavings(ctx context.Context, userID string) (*SavingsAnalysis, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}

	now := s.now().UTC()
	rec, err := s.records.LatestSavingsRecordSince(ctx, userID, dateutil.FreshnessCutoff(now, s.opts.Freshness))
	switch {
	case err == nil:
		s.logger.Debugf("savings analysis for %s served from stored record %s", userID, rec.ID)
		return &SavingsAnalysis{Record: *rec, Origin: OriginRecord}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("looking up savings record: %w", err)
	}

	txns, err := s.txns.ListTransactions(ctx, userID, s.opts.SavingsFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	if len(txns) == 0 {
		return &SavingsAnalysis{
			Record: domain.SavingsRecord{UserID: userID, WastefulSpends: []string{}, AIAdvice: PlaceholderAdvice},
			Origin: OriginPlaceholder,
		}, nil
	}

	if s.advisor == nil {
		return nil, fmt.Errorf("%w: no advisor configured", ErrAdvisorUnavailable)
	}
	reply, err := s.advisor.Generate(ctx, advisor.SavingsPrompt(txns))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrAdvisorUnavailable, err)
	}
	findings, err := advisor.ParseSavingsReply(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAdvisorUnavailable, err)
	}

	out := &domain.SavingsRecord{
		UserID:           userID,
		MonthlyIncome:    findings.MonthlyIncome,
		MonthlyExpense:   findings.MonthlyExpense,
		CurrentSavings:   findings.CurrentSavings(),
		PotentialSavings: findings.PotentialSavings,
		WastefulSpends:   findings.WastefulSpends,
		AIAdvice:         findings.AIAdvice,
		Timestamp:        now,
	}
	if out.WastefulSpends == nil {
		out.WastefulSpends = []string{}
	}
	if err := s.records.SaveSavingsRecord(ctx, out); err != nil {
		s.logger.Errorf("failed to save savings record for %s: %v", userID, err)
	}
	return &SavingsAnalysis{Record: *out, Origin: OriginAdvisor}, nil
}
