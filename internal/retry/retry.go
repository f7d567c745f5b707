// internal/retry/retry.go
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// Policy defines exponential-backoff retry behavior. The zero value is
// not useful; construct with Default() or explicit fields.
type Policy struct {
	MaxRetries    int           // retries after the initial attempt
	InitialDelay  time.Duration // delay before the first retry
	BackoffFactor float64       // multiplier applied per retry
}

// Default returns the retry configuration used for browser navigations
// and page-content extraction.
func Default() Policy {
	return Policy{
		MaxRetries:    3,
		InitialDelay:  2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ExhaustedError is returned when an operation failed on every attempt.
// Attempts is the total number of invocations (initial + retries).
type ExhaustedError struct {
	Attempts int
	Label    string
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Label, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do invokes op until it succeeds or MaxRetries retries are spent.
// Between attempts it sleeps InitialDelay * BackoffFactor^attempt,
// honoring context cancellation. Every failed attempt is logged at warn
// level; exhaustion is logged at error level and surfaced as an
// *ExhaustedError carrying the final attempt count.
func (p Policy) Do(ctx context.Context, logger zerolog.Logger, label string, op func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Debug().
					Str("op", label).
					Int("attempt", attempt+1).
					Msg("Retry succeeded")
			}
			return nil
		}
		lastErr = err

		if attempt == p.MaxRetries {
			break
		}

		backoff := p.delay(attempt)
		logger.Warn().
			Str("op", label).
			Int("attempt", attempt+1).
			Int("max_attempts", p.MaxRetries+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Attempt failed, retrying after backoff")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	logger.Error().
		Str("op", label).
		Int("attempts", p.MaxRetries+1).
		Err(lastErr).
		Msg("Retries exhausted")

	return &ExhaustedError{
		Attempts: p.MaxRetries + 1,
		Label:    label,
		Err:      lastErr,
	}
}

// delay computes the backoff before retry number attempt+1.
func (p Policy) delay(attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(attempt)))
}
