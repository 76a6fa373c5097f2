// Package retry runs operations under exponential backoff, using the
// fault taxonomy to decide what is worth retrying: only transient
// kinds (ResourceUnavailable, Conflict, Timeout) are attempted again,
// everything else stops immediately.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"faultline/pkg/fault"
)

const (
	initialInterval     = 50 * time.Millisecond
	maxInterval         = 2 * time.Second
	maxElapsedTime      = 10 * time.Second
	randomizationFactor = 0.1
)

// newBackOff returns the shared retry schedule.
func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = maxElapsedTime
	b.RandomizationFactor = randomizationFactor
	return b
}

// Do runs operation with exponential backoff while it keeps failing
// with transient faults. Non-transient failures stop immediately and
// are returned unchanged; cancelling ctx stops the schedule and
// returns the context error.
func Do(ctx context.Context, operation func() error) error {
	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if fault.IsTransient(err) {
			return err // Will be retried
		}

		// Non-retryable error: stop immediately
		return backoff.Permanent(err)
	}, backoff.WithContext(newBackOff(), ctx))
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, func() error {
		value, err := operation()
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
