package fault

import (
	"context"
	"sync"
	"testing"

	"github.com/kopia/filejanitor/logging"
)

var log = logging.Module("fault")

// Method identifies a faultable provider method.
type Method int

type methodState struct {
	calls   int
	pending []*Fault
}

// Set holds per-method queues of faults, consumed in the order they were added.
type Set struct {
	mu sync.Mutex
	// +checklocks:mu
	methods map[Method]*methodState
}

// NewSet returns an empty fault set.
func NewSet() *Set {
	return &Set{methods: map[Method]*methodState{}}
}

// +checklocks:s.mu
func (s *Set) stateLocked(m Method) *methodState {
	st := s.methods[m]
	if st == nil {
		st = &methodState{}
		s.methods[m] = st
	}

	return st
}

// AddFault queues a new fault for the method and returns it for configuration.
func (s *Set) AddFault(m Method) *Fault {
	f := &Fault{}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(m)
	st.pending = append(st.pending, f)

	return f
}

// NumCalls returns how many times the method has been invoked.
func (s *Set) NumCalls(m Method) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateLocked(m).calls
}

// VerifyAllFaultsExercised fails the test if any queued fault never fired.
func (s *Set) VerifyAllFaultsExercised(t *testing.T) {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	for m, st := range s.methods {
		if len(st.pending) != 0 {
			t.Fatalf("%v fault(s) for method %v were never hit", len(st.pending), m)
		}
	}
}

// GetNextFault counts a call to the method and fires the next queued fault, if any.
// It returns true when the call should fail with the returned error instead of proceeding.
func (s *Set) GetNextFault(ctx context.Context, m Method, args ...interface{}) (bool, error) {
	s.mu.Lock()

	st := s.stateLocked(m)
	st.calls++

	if len(st.pending) == 0 {
		s.mu.Unlock()
		return false, nil
	}

	f := st.pending[0]

	before, exhausted, err := f.fire()
	if exhausted {
		st.pending = st.pending[1:]
	}

	s.mu.Unlock()

	if before != nil {
		before()
	}

	if err == nil {
		return false, nil
	}

	log(ctx).Debugf("injecting %v into method %v %v", err, m, args)

	return true, err
}
