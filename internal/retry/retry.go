// Package retry wraps fallible operations with bounded attempts and a fixed
// backoff schedule.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yieldscope/yieldscope/internal/errs"
)

// Do runs op up to maxAttempts times. Between failed attempts it sleeps for
// schedule[attempt-1]; when the schedule is shorter than maxAttempts the last
// entry applies to the remaining attempts. On final failure the cause is
// wrapped in an errs.Error of the given kind carrying label. Context
// cancellation aborts the wait and surfaces ctx.Err as the cause.
//
// There is no jitter and no circuit breaker. The external calls this guards
// are a handful of low-QPS fetches; a fixed schedule is enough.
func Do[T any](ctx context.Context, log zerolog.Logger, kind errs.Kind, label string, maxAttempts int, schedule []time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		log.Warn().
			Err(err).
			Str("operation", label).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("Operation failed")

		if attempt == maxAttempts {
			break
		}

		if err := sleep(ctx, backoffFor(schedule, attempt)); err != nil {
			return zero, errs.New(kind, label, err)
		}
	}

	log.Error().
		Err(lastErr).
		Str("operation", label).
		Int("max_attempts", maxAttempts).
		Msg("Max retries reached")

	return zero, errs.New(kind, label, lastErr)
}

// backoffFor returns the wait before retrying after the given 1-based attempt.
func backoffFor(schedule []time.Duration, attempt int) time.Duration {
	if len(schedule) == 0 {
		return 0
	}
	if attempt > len(schedule) {
		return schedule[len(schedule)-1]
	}
	return schedule[attempt-1]
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
