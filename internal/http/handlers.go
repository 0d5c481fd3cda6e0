package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/logging"
	"github.com/finflow/tax-advisor/internal/output"
	"github.com/finflow/tax-advisor/internal/service"
	"github.com/finflow/tax-advisor/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// Handler serves the JSON API on top of the services.
type Handler struct {
	tax          *service.TaxService
	savings      *service.SavingsService
	transactions *service.TransactionService
	credit       *service.CreditService
	logger       logging.Logger
}

// NewHandler creates a Handler.
func NewHandler(
	tax *service.TaxService,
	savings *service.SavingsService,
	transactions *service.TransactionService,
	credit *service.CreditService,
	logger logging.Logger,
) *Handler {
	return &Handler{
		tax:          tax,
		savings:      savings,
		transactions: transactions,
		credit:       credit,
		logger:       logging.OrNop(logger),
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, messageFor(status, err))
}

type userRequest struct {
	UserID string `json:"userId"`
}

type compareRequest struct {
	GrossIncome decimal.Decimal       `json:"gross_income"`
	Claims      domain.DeductionClaim `json:"claims"`
}

var contentTypes = map[string]string{
	"console": "text/plain; charset=utf-8",
	"csv":     "text/csv; charset=utf-8",
	"json":    "application/json",
}

// Compare runs the regime comparison on a supplied income and claim set.
// An optional ?format= selects a registered output formatter.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	report, err := h.tax.Compare(req.GrossIncome, req.Claims)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		writeJSON(w, http.StatusOK, report)
		return
	}

	data, err := output.Render(report, format)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[output.NormalizeFormatName(format)])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type taxAnalysisBody struct {
	TotalIncome        decimal.Decimal         `json:"total_income"`
	DetectedDeductions domain.CappedDeductions `json:"detected_deductions"`
	Findings           []string                `json:"findings"`
	SavingsSuggestion  string                  `json:"savings_suggestion"`
	TaxTips            []string                `json:"tax_tips"`
}

type taxAnalysisResponse struct {
	Analysis      taxAnalysisBody   `json:"analysis"`
	TaxComparison domain.Comparison `json:"tax_comparison"`
	FinancialYear string            `json:"financial_year"`
	Degraded      bool              `json:"degraded"`
	Origin        service.Origin    `json:"origin"`
}

// AnalyzeTax returns the AI-assisted tax analysis for a user.
func (h *Handler) AnalyzeTax(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.tax.AnalyzeTax(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rec := res.Record
	writeJSON(w, http.StatusOK, taxAnalysisResponse{
		Analysis: taxAnalysisBody{
			TotalIncome:        rec.TotalIncome,
			DetectedDeductions: rec.Deductions,
			Findings:           nonNil(rec.Sources),
			SavingsSuggestion:  rec.SavingsSuggestion,
			TaxTips:            nonNil(rec.TaxTips),
		},
		TaxComparison: rec.Comparison,
		FinancialYear: rec.FinancialYear,
		Degraded:      res.Degraded,
		Origin:        res.Origin,
	})
}

type savingsResponse struct {
	domain.SavingsRecord
	Origin service.Origin `json:"origin"`
}

// AnalyzeSavings returns savings advice for a user.
func (h *Handler) AnalyzeSavings(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.savings.AnalyzeSavings(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, savingsResponse{SavingsRecord: res.Record, Origin: res.Origin})
}

// GetITRData returns the latest stored tax record.
func (h *Handler) GetITRData(w http.ResponseWriter, r *http.Request) {
	rec, err := h.tax.LatestRecord(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListTransactions returns every transaction of a user, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.transactions.List(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

type uploadTransaction struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

type uploadRequest struct {
	UserID             string              `json:"userId"`
	ParsedTransactions []uploadTransaction `json:"parsedTransactions"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// UploadAndSave stores parsed statement rows for a user.
func (h *Handler) UploadAndSave(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	txns := make([]domain.Transaction, 0, len(req.ParsedTransactions))
	for i, row := range req.ParsedTransactions {
		tx := domain.Transaction{
			Description: strings.TrimSpace(row.Description),
			Amount:      row.Amount,
			Category:    strings.TrimSpace(row.Category),
		}
		if row.Date != "" {
			date, err := dateutil.ParseDate(row.Date)
			if err != nil {
				h.fail(w, r, fmt.Errorf("%w: row %d: %v", errBadBody, i, err))
				return
			}
			tx.Date = date
		}
		txns = append(txns, tx)
	}

	n, err := h.transactions.Upload(r.Context(), req.UserID, txns)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Message: "Data Saved Permanently", Count: n})
}

// CheckData reports whether a user has any stored transactions.
func (h *Handler) CheckData(w http.ResponseWriter, r *http.Request) {
	ok, err := h.transactions.HasData(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasData": ok})
}

// CreditHealth returns the credit summary of a user.
func (h *Handler) CreditHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.credit.Health(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

type addLoanRequest struct {
	UserID      string          `json:"userId"`
	Lender      string          `json:"lender"`
	Type        domain.LoanType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Status      string          `json:"status"`
}

type addLoanResponse struct {
	Success bool         `json:"success"`
	Loan    *domain.Loan `json:"loan"`
}

// AddLoan records a loan for a user.
func (h *Handler) AddLoan(w http.ResponseWriter, r *http.Request) {
	var req addLoanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	loan, err := h.credit.AddLoan(r.Context(), domain.Loan{
		UserID:      req.UserID,
		Lender:      strings.TrimSpace(req.Lender),
		Type:        req.Type,
		Amount:      req.Amount,
		Outstanding: req.Outstanding,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addLoanResponse{Success: true, Loan: loan})
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
