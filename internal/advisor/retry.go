package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finflow/tax-advisor/internal/logging"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffStep = 2 * time.Second
)

// Retrier wraps a Generator and retries rate-limited calls with a linear
// backoff of Step × attempt. Any other error is returned immediately.
type Retrier struct {
	Next        Generator
	MaxAttempts int
	Step        time.Duration
	Logger      logging.Logger

	// sleep waits for d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier with the default attempt count and step
func NewRetrier(next Generator, maxAttempts int, step time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if step < 0 {
		step = DefaultBackoffStep
	}
	return &Retrier{
		Next:        next,
		MaxAttempts: maxAttempts,
		Step:        step,
		Logger:      logging.NopLogger{},
		sleep:       sleepContext,
	}
}

// Generate calls the wrapped Generator, backing off on ErrRateLimited.
func (r *Retrier) Generate(ctx context.Context, prompt string) (string, error) {
	logger := logging.OrNop(r.Logger)
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := r.Next.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return "", err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		wait := r.Step * time.Duration(attempt)
		logger.Warnf("advisor rate limited, retrying in %s (attempt %d/%d)", wait, attempt, attempts)
		if err := sleep(ctx, wait); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
