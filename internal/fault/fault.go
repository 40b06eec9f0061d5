// Package fault injects failures into storage providers under test.
package fault

import "sync"

// Fault is a single scripted failure. It fires once, plus the number of repeats configured with Repeat.
type Fault struct {
	mu sync.Mutex

	// +checklocks:mu
	remaining int
	// +checklocks:mu
	err error
	// +checklocks:mu
	before func()
}

// ErrorInstead makes the faulted call return err without reaching the wrapped provider.
func (f *Fault) ErrorInstead(err error) *Fault {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.err = err

	return f
}

// Before registers a function invoked every time the fault fires.
func (f *Fault) Before(cb func()) *Fault {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.before = cb

	return f
}

// Repeat makes the fault fire n more times after the first.
func (f *Fault) Repeat(n int) *Fault {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.remaining = n

	return f
}

// fire consumes one occurrence and reports whether the fault is used up.
func (f *Fault) fire() (before func(), exhausted bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.remaining > 0 {
		f.remaining--
		return f.before, false, f.err
	}

	return f.before, true, f.err
}
