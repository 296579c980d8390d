// Package panel holds the state machines behind the search and ML pages.
package panel

import (
	"context"
	"sync"
	"time"
)

// Status is a snapshot of a Slot.
type Status[T any] struct {
	Pending  bool
	Done     bool
	Result   T
	Err      error
	Finished time.Time
}

// Slot tracks one kind of action. Runs are never cancelled: every
// completion overwrites the result, so when runs overlap the last response
// to arrive wins. The slot stays pending while any run is in flight.
type Slot[T any] struct {
	mu       sync.Mutex
	inflight int
	done     bool
	result   T
	err      error
	finished time.Time
}

// Go starts fn in a goroutine. apply, when not nil, runs with the result
// before the slot reports it, so readers that see the slot settle also see
// whatever apply changed. The returned channel closes when this run ends.
func (s *Slot[T]) Go(fn func() (T, error), apply func(T, error)) <-chan struct{} {
	s.begin()

	finished := make(chan struct{})
	go func() {
		defer close(finished)

		v, err := fn()
		if apply != nil {
			apply(v, err)
		}
		s.finish(v, err)
	}()
	return finished
}

func (s *Slot[T]) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	s.inflight++
	s.done = false
	s.result = zero
	s.err = nil
}

func (s *Slot[T]) finish(v T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
	s.done = true
	s.result = v
	s.err = err
	s.finished = time.Now()
}

// Status returns the current state.
func (s *Slot[T]) Status() Status[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status[T]{
		Pending:  s.inflight > 0,
		Done:     s.done,
		Result:   s.result,
		Err:      s.err,
		Finished: s.finished,
	}
}

// Reset forgets the last result. Runs in flight still report when done.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	s.done = false
	s.result = zero
	s.err = nil
}

// Wait blocks until done closes or ctx ends, and reports whether the run
// finished.
func Wait(ctx context.Context, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
