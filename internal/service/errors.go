package service

import "errors"

var (
	// ErrMissingUser is returned when a request names no user.
	ErrMissingUser = errors.New("user ID required")
	// ErrNoTransactions is returned when an analysis has nothing to read.
	ErrNoTransactions = errors.New("no transactions found")
	// ErrNoRecord is returned when no stored analysis exists for a user.
	ErrNoRecord = errors.New("no tax record found")
	// ErrEmptyUpload is returned when an upload carries no rows.
	ErrEmptyUpload = errors.New("no transactions to save")
	// ErrInvalidLoan is returned when a loan fails validation.
	ErrInvalidLoan = errors.New("invalid loan")
	// ErrAdvisorUnavailable wraps advisor failures that cannot be degraded.
	ErrAdvisorUnavailable = errors.New("AI service failed")
)
