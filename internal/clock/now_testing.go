//go:build testing

package clock

import (
	"os"
	"sync"
	"time"
)

// Now is overridable function that returns current wall clock time.
var Now = time.Now //nolint:forbidigo,gochecknoglobals

func init() {
	fixed := os.Getenv("FILEJANITOR_FAKE_CLOCK")
	if fixed == "" {
		return
	}

	t, err := time.Parse(time.RFC3339Nano, fixed)
	if err != nil {
		return
	}

	Now = steppingClock(t, time.Second)
}

// steppingClock returns a function that starts at the provided time and advances
// by a fixed step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex

	next := start

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		v := next
		next = next.Add(step)

		return v
	}
}
