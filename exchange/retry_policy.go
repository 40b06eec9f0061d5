package exchange

import (
	"context"
	"time"

	"github.com/alecthomas/units"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/storage"
)

// Retry policy defaults.
const (
	DefaultMaxAttempts = retry.DefaultMaxAttempts
	DefaultMinimumWait = retry.DefaultWaitMultiplier
	DefaultWaitPerMiB  = time.Millisecond
)

// RetryPolicy describes linear backoff applied to every remote call. The wait after the n-th
// failed attempt is n times the step, where the step for uploads grows with the size of the
// transferred file but never drops below MinimumWait.
type RetryPolicy struct {
	MaxAttempts int           `json:"maxAttempts"`
	MinimumWait time.Duration `json:"minimumWait"`
	WaitPerMiB  time.Duration `json:"waitPerMiB"`
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		MinimumWait: DefaultMinimumWait,
		WaitPerMiB:  DefaultWaitPerMiB,
	}
}

// StepForSize returns the backoff step for a transfer of the provided size.
func (p RetryPolicy) StepForSize(size int64) time.Duration {
	step := time.Duration(size/int64(units.MiB)) * p.WaitPerMiB
	if step < p.MinimumWait {
		return p.MinimumWait
	}

	return step
}

func (p RetryPolicy) forSize(operation string, size int64) retry.Policy {
	return retry.Policy{
		MaxAttempts:    p.MaxAttempts,
		WaitMultiplier: p.StepForSize(size),
		OnRetry: func(int, error) {
			metricRetries.WithLabelValues(operation).Inc()
		},
	}
}

// isRetriable determines whether a remote call failure may succeed when repeated.
func isRetriable(err error) bool {
	switch {
	case errors.Is(err, storage.ErrFileNotFound):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return !retry.IsPermanent(err)
	}
}
