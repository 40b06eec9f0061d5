package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/units"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/retry"
	"github.com/kopia/filejanitor/storage"
)

func TestRetryPolicyStepForSize(t *testing.T) {
	p := DefaultRetryPolicy()

	require.Equal(t, 3, p.MaxAttempts)
	require.Equal(t, 5*time.Second, p.StepForSize(0))
	require.Equal(t, 5*time.Second, p.StepForSize(int64(units.GiB)))
	require.Equal(t, 10240*time.Millisecond, p.StepForSize(10*int64(units.GiB)))

	p = RetryPolicy{MaxAttempts: 2, MinimumWait: time.Millisecond, WaitPerMiB: time.Millisecond}
	require.Equal(t, time.Millisecond, p.StepForSize(100))
	require.Equal(t, 20*time.Millisecond, p.StepForSize(20*int64(units.MiB)))
}

func TestIsRetriable(t *testing.T) {
	require.True(t, isRetriable(errors.New("transient")))
	require.False(t, isRetriable(errors.Wrap(storage.ErrFileNotFound, "some file")))
	require.False(t, isRetriable(retry.Permanent(errors.New("bad config"))))
	require.False(t, isRetriable(errors.Wrap(context.Canceled, "cancelled")))
	require.False(t, isRetriable(context.DeadlineExceeded))
}
