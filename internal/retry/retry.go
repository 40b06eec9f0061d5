// Package retry implements linear backoff retry policy.
package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/logging"
)

var log = logging.Module("retry")

const (
	// DefaultMaxAttempts is the default total number of invocations of a retried call.
	DefaultMaxAttempts = 3

	// DefaultWaitMultiplier is the default linear backoff step.
	DefaultWaitMultiplier = 5 * time.Second
)

// AttemptFunc performs an attempt and returns a value (optional, may be nil) and an error.
type AttemptFunc[T any] func() (T, error)

// IsRetriableFunc is a function that determines whether an error is retriable.
type IsRetriableFunc func(err error) bool

// Policy describes linear backoff: after the n-th failed attempt (1-based) the caller waits
// n*WaitMultiplier before trying again, for at most MaxAttempts invocations in total.
type Policy struct {
	MaxAttempts    int
	WaitMultiplier time.Duration

	// OnRetry, when set, is invoked before each wait with the number of the attempt that failed.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		WaitMultiplier: DefaultWaitMultiplier,
	}
}

// WaitAfter returns the duration to wait after the given failed attempt (1-based).
func (p Policy) WaitAfter(attempt int) time.Duration {
	return time.Duration(attempt) * p.WaitMultiplier
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}

	return p.MaxAttempts
}

// WithLinearBackoff runs the provided attempt until it succeeds, retrying on all errors that are
// deemed retriable by the provided function. When all attempts fail, the error returned by the
// last attempt is returned unchanged.
func WithLinearBackoff[T any](ctx context.Context, desc string, p Policy, attempt AttemptFunc[T], isRetriableError IsRetriableFunc) (T, error) {
	var defaultT T

	maxAttempts := p.maxAttempts()

	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return defaultT, errors.Wrapf(err, "unable to complete %v", desc)
		}

		v, err := attempt()
		if err == nil {
			return v, nil
		}

		if IsPermanent(err) || !isRetriableError(err) {
			return v, err
		}

		if i >= maxAttempts {
			log(ctx).Debugf("giving up on %v after %v attempts: %v", desc, i, err)
			return v, err
		}

		sleepAmount := p.WaitAfter(i)

		log(ctx).Debugf("got error %v when %v (#%v), sleeping for %v before retrying", err, desc, i, sleepAmount)

		if p.OnRetry != nil {
			p.OnRetry(i, err)
		}

		if err := sleep(ctx, sleepAmount); err != nil {
			return defaultT, errors.Wrapf(err, "unable to complete %v", desc)
		}
	}
}

// WithLinearBackoffNoValue is a convenience wrapper around WithLinearBackoff for attempts
// that only return an error.
func WithLinearBackoffNoValue(ctx context.Context, desc string, p Policy, attempt func() error, isRetriableError IsRetriableFunc) error {
	_, err := WithLinearBackoff(ctx, desc, p, func() (bool, error) {
		return true, attempt()
	}, isRetriableError)

	return err
}

func sleep(ctx context.Context, d time.Duration) error {
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

// Always is a retry function that retries all errors.
func Always(error) bool {
	return true
}

// Never is a retry function that never retries.
func Never(error) bool {
	return false
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks the provided error as not retriable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return permanentError{err}
}

// IsPermanent determines whether the error has been marked as not retriable.
func IsPermanent(err error) bool {
	var pe permanentError

	return errors.As(err, &pe)
}
