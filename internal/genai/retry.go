package genai

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"
)

// CalculateBackoff returns the delay before retry number attempt using full
// jitter: random(0, min(maxDelay, initial * 2^(attempt-1))).
func CalculateBackoff(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt <= 0 || initial <= 0 {
		return 0
	}

	delay := initial
	for i := 1; i < attempt && delay < maxDelay; i++ {
		delay *= 2
	}
	delay = min(delay, maxDelay)
	if delay <= 0 {
		return 0
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(delay)))
	if err != nil {
		return delay / 2
	}
	return time.Duration(n.Int64())
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithRetry calls fn up to cfg.MaxAttempts times while the error is
// retryable. onRetry, if set, runs before each backoff. A server supplied
// Retry-After replaces the computed backoff when it fits within MaxDelay.
func WithRetry(ctx context.Context, cfg RetryConfig, onRetry func(attempt int, err error), fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry || attempt == attempts-1 {
			return err
		}

		delay := CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
		var llmErr *LLMError
		if errors.As(err, &llmErr) && llmErr.RetryAfter > 0 && llmErr.RetryAfter <= cfg.MaxDelay {
			delay = llmErr.RetryAfter
		}
		if !HasSufficientBudget(ctx, delay) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		if sleepErr := Sleep(ctx, delay); sleepErr != nil {
			return err
		}
	}
	return lastErr
}

// HasSufficientBudget reports whether ctx's deadline leaves at least required.
func HasSufficientBudget(ctx context.Context, required time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) >= required
}
