package sim

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrSequenceAborted is returned by Claim once the allocator has been aborted.
var ErrSequenceAborted = errors.New("sequence allocator aborted")

// SequenceAllocator hands out strictly increasing sequence numbers starting at 0.
// Concurrent callers never receive the same value and no value is skipped.
//
// Next serves callers in scheduling order. Claim serves them in turn order:
// a caller asks for a specific number and waits until every smaller number has
// been handed out. Producers use Claim so that sequence order follows the
// partition plan's id order on every run.
type SequenceAllocator struct {
	mu      sync.Mutex
	turn    *sync.Cond // lazily bound to mu; signalled on every advance
	next    int
	aborted bool
}

// cond must be called with mu held.
func (s *SequenceAllocator) cond() *sync.Cond {
	if s.turn == nil {
		s.turn = sync.NewCond(&s.mu)
	}
	return s.turn
}

// Next allocates the next sequence number.
func (s *SequenceAllocator) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.next
	s.next++
	s.cond().Broadcast()
	return n
}

// Claim blocks until seq is the next number to hand out, then allocates it.
// A seq below the next number has already been handed out and is an error.
func (s *SequenceAllocator) Claim(seq int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.next < seq && !s.aborted {
		s.cond().Wait()
	}
	if s.aborted {
		return ErrSequenceAborted
	}
	if s.next > seq {
		return errors.Errorf("sequence number %d already allocated, next is %d", seq, s.next)
	}
	s.next++
	s.cond().Broadcast()
	return nil
}

// Peek returns the value the next call to Next will allocate.
func (s *SequenceAllocator) Peek() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Abort wakes every caller blocked in Claim. From then on Claim returns
// ErrSequenceAborted until Reset.
func (s *SequenceAllocator) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
	s.cond().Broadcast()
}

// Reset rewinds the counter to 0 and clears an abort. Only call it while no
// producer is running.
func (s *SequenceAllocator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
	s.aborted = false
}
