package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finflow/tax-advisor/internal/advisor"
	"github.com/finflow/tax-advisor/internal/calculation"
	"github.com/finflow/tax-advisor/internal/output"
	"github.com/finflow/tax-advisor/internal/service"
)

// maxRequestBody bounds JSON request bodies; statement uploads can be large
const maxRequestBody = 50 << 20

var errBadBody = errors.New("invalid request body")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, calculation.ErrInvalidInput),
		errors.Is(err, service.ErrMissingUser),
		errors.Is(err, service.ErrEmptyUpload),
		errors.Is(err, service.ErrInvalidLoan),
		errors.Is(err, output.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoTransactions),
		errors.Is(err, service.ErrNoRecord):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAdvisorUnavailable),
		errors.Is(err, advisor.ErrRetriesExhausted),
		errors.Is(err, advisor.ErrRateLimited),
		errors.Is(err, advisor.ErrUnauthorized),
		errors.Is(err, advisor.ErrEmptyReply),
		errors.Is(err, advisor.ErrMalformedReply):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// messageFor hides internal details behind generic messages for 5xx responses
func messageFor(status int, err error) string {
	switch {
	case status < http.StatusInternalServerError:
		return err.Error()
	case status == http.StatusBadGateway:
		return service.ErrAdvisorUnavailable.Error()
	case status == http.StatusGatewayTimeout:
		return "request timed out"
	default:
		return "internal server error"
	}
}
