// Implements the BoundedQueue shared by producers and consumers.
// Put blocks while the queue is full, Get blocks while it is empty.

package sim

import (
	"fmt"
	"sync"
)

// Transition is the queue length observed around one Put or Get.
// It is sampled inside the queue's critical section, so Before and After are
// exact, and Tick totally orders every successful queue operation.
type Transition struct {
	Tick   uint64
	Before int
	After  int
}

func (t Transition) String() string {
	return fmt.Sprintf("%d -> %d", t.Before, t.After)
}

// BoundedQueue is a fixed-capacity FIFO of entries backed by a ring buffer.
// All state is guarded by mu; notFull and notEmpty are the two wait conditions.
type BoundedQueue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	entries []Entry
	head    int // index of the oldest entry
	size    int
	tick    uint64
	aborted bool
}

// NewBoundedQueue creates an empty queue holding at most capacity entries.
func NewBoundedQueue(capacity int) (*BoundedQueue, error) {
	if err := mustBePositive("queue_capacity", capacity); err != nil {
		return nil, err
	}
	q := &BoundedQueue{entries: make([]Entry, capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Put appends e, blocking while the queue is full.
// It returns ErrQueueAborted if the queue is aborted before e is inserted.
func (q *BoundedQueue) Put(e Entry) (Transition, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == len(q.entries) && !q.aborted {
		q.notFull.Wait()
	}
	if q.aborted {
		return Transition{}, ErrQueueAborted
	}

	before := q.size
	q.entries[(q.head+q.size)%len(q.entries)] = e
	q.size++
	q.checkBounds()
	q.tick++
	q.notEmpty.Signal()
	return Transition{Tick: q.tick, Before: before, After: q.size}, nil
}

// Get removes and returns the oldest entry, blocking while the queue is empty.
// It returns ErrQueueAborted if the queue is aborted before an entry is taken.
func (q *BoundedQueue) Get() (Entry, Transition, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.aborted {
		q.notEmpty.Wait()
	}
	if q.aborted {
		return Entry{}, Transition{}, ErrQueueAborted
	}

	before := q.size
	e := q.entries[q.head]
	q.entries[q.head] = Entry{}
	q.head = (q.head + 1) % len(q.entries)
	q.size--
	q.checkBounds()
	q.tick++
	q.notFull.Signal()
	return e, Transition{Tick: q.tick, Before: before, After: q.size}, nil
}

// Len returns the number of entries currently queued.
func (q *BoundedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity.
func (q *BoundedQueue) Cap() int {
	return len(q.entries)
}

// Abort wakes every blocked Put and Get. From then on both return ErrQueueAborted.
func (q *BoundedQueue) Abort() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.aborted = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Aborted reports whether Abort has been called.
func (q *BoundedQueue) Aborted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.aborted
}

// checkBounds must be called with mu held.
func (q *BoundedQueue) checkBounds() {
	if q.size < 0 || q.size > len(q.entries) {
		panic(&InvariantViolation{Detail: fmt.Sprintf("queue length %d outside [0, %d]", q.size, len(q.entries))})
	}
}
