package http

import (
	"net/http"

	"github.com/finflow/tax-advisor/internal/logging"
)

// NewRouter registers every API route. AI-backed routes sit behind limiter
// when it is non-nil; the whole mux is wrapped in request logging.
func NewRouter(h *Handler, limiter *RateLimiter, logger logging.Logger) http.Handler {
	limited := func(fn http.HandlerFunc) http.Handler {
		if limiter == nil {
			return fn
		}
		return RateLimitMiddleware(limiter, fn)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Healthz)

	mux.HandleFunc("POST /api/tax/compare", h.Compare)
	mux.Handle("POST /api/analyze-tax", limited(h.AnalyzeTax))
	mux.Handle("POST /analyze-tax", limited(h.AnalyzeTax))
	mux.Handle("POST /api/analyze-savings", limited(h.AnalyzeSavings))
	mux.HandleFunc("GET /api/get-itr-data/{userID}", h.GetITRData)

	mux.HandleFunc("GET /api/transactions/{userID}", h.ListTransactions)
	mux.HandleFunc("POST /api/upload-and-save", h.UploadAndSave)
	mux.HandleFunc("GET /api/check-data/{userID}", h.CheckData)

	mux.HandleFunc("GET /api/credit-health/{userID}", h.CreditHealth)
	mux.HandleFunc("POST /api/add-loan", h.AddLoan)

	return LoggingMiddleware(logger, mux)
}
