package calculation

import "errors"

// ErrInvalidInput is returned when a caller supplies an impossible value,
// such as a negative gross income. It is never retried.
var ErrInvalidInput = errors.New("invalid input")
