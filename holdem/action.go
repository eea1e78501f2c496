package holdem

import (
	"context"
	"sync"
)

// ActionSlot is the single-slot handoff between a connection and the round
// engine. Only the latest submission before a wait resolves is delivered.
type ActionSlot struct {
	mu     sync.Mutex
	latest *Action
	ready  chan struct{}

	gone     chan struct{}
	goneOnce sync.Once
}

func NewActionSlot() *ActionSlot {
	return &ActionSlot{
		ready: make(chan struct{}, 1),
		gone:  make(chan struct{}),
	}
}

// Submit records a and wakes the pending wait, if any. Without a waiter the
// action is kept for the next Await.
func (s *ActionSlot) Submit(a Action) {
	s.mu.Lock()
	s.latest = &a
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Await blocks until an action is submitted. A cancelled slot or context
// resolves the wait as a fold together with the cause.
func (s *ActionSlot) Await(ctx context.Context) (Action, error) {
	for {
		select {
		case <-s.gone:
			return foldAction, ErrPlayerGone
		default:
		}
		select {
		case <-s.ready:
			s.mu.Lock()
			a := s.latest
			s.latest = nil
			s.mu.Unlock()
			if a == nil {
				// cleared after the signal was sent
				continue
			}
			return *a, nil
		case <-s.gone:
			return foldAction, ErrPlayerGone
		case <-ctx.Done():
			return foldAction, ctx.Err()
		}
	}
}

// Pending reports the action waiting for the next Await.
func (s *ActionSlot) Pending() (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Action{}, false
	}
	return *s.latest, true
}

// Clear drops a pending submission.
func (s *ActionSlot) Clear() {
	s.mu.Lock()
	s.latest = nil
	s.mu.Unlock()
	select {
	case <-s.ready:
	default:
	}
}

// Cancel permanently resolves current and future waits as a fold.
func (s *ActionSlot) Cancel() {
	s.goneOnce.Do(func() { close(s.gone) })
}
