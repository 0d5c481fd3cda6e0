package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finflow/tax-advisor/internal/advisor"
	"github.com/finflow/tax-advisor/internal/calculation"
	"github.com/finflow/tax-advisor/internal/domain"
	"github.com/finflow/tax-advisor/internal/repository"
	"github.com/finflow/tax-advisor/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taxReply = `Here you go: {"total_income": 1000000, "deductions_80c": 150000, "deductions_80d": 25000,
"findings": ["LIC"], "savings_suggestion": "Consider NPS", "tax_tips": ["Keep receipts"]}`

const savingsReply = `{"monthly_income": 85000, "monthly_expense": 61000, "potential_savings": 7000,
"wasteful_spends": ["Food delivery"], "ai_advice": "Cook at home"}`

type apiFixture struct {
	handler http.Handler
	store   *repository.MemoryStore
	calls   *atomic.Int32
}

// newAPI wires the router over memory stores; generate answers every advisor prompt
func newAPI(t *testing.T, generate func(prompt string) (string, error), limiter *RateLimiter) *apiFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	calls := &atomic.Int32{}
	gen := advisor.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return generate(prompt)
	})

	tax := service.NewTaxService(calculation.NewTaxEngine(), store, store, repository.NewMemoryCache(), gen, service.DefaultOptions())
	savings := service.NewSavingsService(store, store, gen, service.DefaultOptions())
	h := NewHandler(tax, savings, service.NewTransactionService(store), service.NewCreditService(store), nil)
	return &apiFixture{handler: NewRouter(h, limiter, nil), store: store, calls: calls}
}

func okReplies(prompt string) (string, error) {
	if strings.Contains(prompt, "monthly_income") {
		return savingsReply, nil
	}
	return taxReply, nil
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const uploadBody = `{"userId": "u1", "parsedTransactions": [
	{"description": "Salary", "amount": 600000, "date": "2025-06-01"},
	{"description": "LIC Premium", "amount": "-5000", "date": "05/06/2025", "category": "Insurance"},
	{"description": "FD Interest", "amount": 20000, "date": "2025-06-03T10:00:00Z"}
]}`

func TestUploadListAndCheckData(t *testing.T) {
	api := newAPI(t, okReplies, nil)

	w := api.do(t, http.MethodGet, "/api/check-data/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["hasData"])

	w = api.do(t, http.MethodPost, "/api/upload-and-save", uploadBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Data Saved Permanently", body["message"])
	assert.Equal(t, float64(3), body["count"])

	w = api.do(t, http.MethodGet, "/api/check-data/u1", "")
	assert.Equal(t, true, decodeBody(t, w)["hasData"])

	w = api.do(t, http.MethodGet, "/api/transactions/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var txns []domain.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txns))
	require.Len(t, txns, 3)
	assert.Equal(t, "LIC Premium", txns[0].Description)
	assert.Equal(t, "Insurance", txns[0].Category)
	assert.Equal(t, "FD Interest", txns[1].Description)
	assert.Equal(t, "Salary", txns[2].Description)
	assert.Equal(t, "u1", txns[2].UserID)

	w = api.do(t, http.MethodGet, "/api/transactions/nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestUpload_Rejections(t *testing.T) {
	api := newAPI(t, okReplies, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty list", `{"userId": "u1", "parsedTransactions": []}`, "no transactions to save"},
		{"missing user", `{"parsedTransactions": [{"description": "x", "amount": 1}]}`, "user ID required"},
		{"bad json", `{not json`, "invalid request body"},
		{"bad date", `{"userId": "u1", "parsedTransactions": [{"description": "x", "amount": 1, "date": "yesterday"}]}`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/upload-and-save", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w)["error"], tt.want)
		})
	}
}

func TestAnalyzeTax(t *testing.T) {
	api := newAPI(t, okReplies, nil)

	w := api.do(t, http.MethodPost, "/analyze-tax", `{"userId": "u1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no transactions found", decodeBody(t, w)["error"])

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/upload-and-save", uploadBody).Code)

	w = api.do(t, http.MethodPost, "/api/analyze-tax", `{"userId": "u1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)

	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, "1000000", analysis["total_income"])
	assert.Equal(t, "Consider NPS", analysis["savings_suggestion"])
	assert.Equal(t, []any{"Keep receipts"}, analysis["tax_tips"])
	deductions := analysis["detected_deductions"].(map[string]any)
	assert.Equal(t, "150000", deductions["80c"])

	comparison := body["tax_comparison"].(map[string]any)
	assert.Equal(t, "67500", comparison["old_regime_tax"])
	assert.Equal(t, "32500", comparison["new_regime_tax"])
	assert.Equal(t, "35000", comparison["savings"])
	assert.Equal(t, "New Regime", comparison["recommendation"])
	assert.Equal(t, false, body["degraded"])
	assert.Equal(t, "advisor", body["origin"])

	// served from the cache without another advisor call
	w = api.do(t, http.MethodPost, "/analyze-tax", `{"userId": "u1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cache", decodeBody(t, w)["origin"])
	assert.EqualValues(t, 1, api.calls.Load())

	w = api.do(t, http.MethodGet, "/api/get-itr-data/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	rec := decodeBody(t, w)
	assert.Equal(t, "u1", rec["userId"])
	assert.Equal(t, "2025-26", rec["financialYear"])
}

func TestAnalyzeTax_DegradesWhenAdvisorFails(t *testing.T) {
	api := newAPI(t, func(string) (string, error) { return "", advisor.ErrRetriesExhausted }, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/upload-and-save", uploadBody).Code)

	w := api.do(t, http.MethodPost, "/api/analyze-tax", `{"userId": "u1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, "fallback", body["origin"])
	assert.Equal(t, "620000", body["analysis"].(map[string]any)["total_income"])

	w = api.do(t, http.MethodGet, "/api/get-itr-data/u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no tax record found", decodeBody(t, w)["error"])
}

func TestAnalyzeTax_MissingUser(t *testing.T) {
	api := newAPI(t, okReplies, nil)
	w := api.do(t, http.MethodPost, "/api/analyze-tax", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeSavings(t *testing.T) {
	api := newAPI(t, okReplies, nil)

	w := api.do(t, http.MethodPost, "/api/analyze-savings", `{"userId": "u1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, service.PlaceholderAdvice, body["aiAdvice"])
	assert.Equal(t, "placeholder", body["origin"])

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/upload-and-save", uploadBody).Code)

	w = api.do(t, http.MethodPost, "/api/analyze-savings", `{"userId": "u1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decodeBody(t, w)
	assert.Equal(t, "Cook at home", body["aiAdvice"])
	assert.Equal(t, "24000", body["currentSavings"])
	assert.Equal(t, "advisor", body["origin"])
}

func TestAnalyzeSavings_AdvisorFailure(t *testing.T) {
	api := newAPI(t, func(string) (string, error) { return "", errors.New("boom") }, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/upload-and-save", uploadBody).Code)

	w := api.do(t, http.MethodPost, "/api/analyze-savings", `{"userId": "u1"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "AI service failed", decodeBody(t, w)["error"])
}

func TestCompare(t *testing.T) {
	api := newAPI(t, okReplies, nil)
	body := `{"gross_income": 1000000, "claims": {"80c": 200000, "80d": 25000, "unknown": 5}}`

	w := api.do(t, http.MethodPost, "/api/tax/compare", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	comparison := decodeBody(t, w)["tax_comparison"].(map[string]any)
	assert.Equal(t, "67500", comparison["old_regime_tax"])
	assert.Equal(t, "New Regime", comparison["recommendation"])

	w = api.do(t, http.MethodPost, "/api/tax/compare?format=csv", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "regime,Old Regime,775000.00,67500,false")

	w = api.do(t, http.MethodPost, "/api/tax/compare?format=text", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Recommended: New Regime")

	w = api.do(t, http.MethodPost, "/api/tax/compare?format=pdf", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/tax/compare", `{"gross_income": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "invalid input")
}

func TestLoansAndCreditHealth(t *testing.T) {
	api := newAPI(t, okReplies, nil)

	w := api.do(t, http.MethodPost, "/api/add-loan", `{"userId": "u1", "lender": "SBI", "type": "Home", "amount": 5000000, "outstanding": 4200000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	loan := body["loan"].(map[string]any)
	assert.Equal(t, "Active", loan["status"])
	assert.NotEmpty(t, loan["id"])

	w = api.do(t, http.MethodPost, "/api/add-loan", `{"userId": "u1", "type": "Payday"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/credit-health/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health domain.CreditHealth
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, 750, health.Score)
	assert.Equal(t, 100, health.Factors["onTimePayments"])
	require.Len(t, health.Loans, 1)
	assert.Equal(t, domain.HomeLoan, health.Loans[0].Type)
}

func TestRouting(t *testing.T) {
	api := newAPI(t, okReplies, nil)

	w := api.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/analyze-tax", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = api.do(t, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitedAIRoutes(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour)
	defer limiter.Stop()
	api := newAPI(t, okReplies, limiter)

	w := api.do(t, http.MethodPost, "/api/analyze-savings", `{"userId": "u1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/analyze-savings", `{"userId": "u1"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate limit exceeded", decodeBody(t, w)["error"])

	// non-AI routes are not limited
	w = api.do(t, http.MethodGet, "/api/check-data/u1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{calculation.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrEmptyUpload, http.StatusBadRequest},
		{service.ErrNoRecord, http.StatusNotFound},
		{service.ErrNoTransactions, http.StatusNotFound},
		{service.ErrAdvisorUnavailable, http.StatusBadGateway},
		{advisor.ErrRateLimited, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
	assert.Equal(t, "internal server error", messageFor(http.StatusInternalServerError, errors.New("disk full")))
}
