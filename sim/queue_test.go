package sim

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T, capacity int) *BoundedQueue {
	t.Helper()
	q, err := NewBoundedQueue(capacity)
	require.NoError(t, err)
	return q
}

func TestNewBoundedQueue_NonPositiveCapacity_ReturnsConfigurationError(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		q, err := NewBoundedQueue(capacity)
		assert.Nil(t, q)
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr), "capacity %d: got %v", capacity, err)
		assert.Equal(t, "queue_capacity", cfgErr.Field)
	}
}

func TestBoundedQueue_PutGet_FIFOWithExactTransitions(t *testing.T) {
	// GIVEN a queue of capacity 3
	q := newQueue(t, 3)

	// WHEN three items are put
	for i := 1; i <= 3; i++ {
		tr, err := q.Put(Item(NewWorkItem(i, i-1)))
		require.NoError(t, err)
		assert.Equal(t, i-1, tr.Before)
		assert.Equal(t, i, tr.After)
		assert.Equal(t, uint64(i), tr.Tick)
	}

	// THEN they come back oldest first, each get shrinking the queue by one
	for i := 1; i <= 3; i++ {
		e, tr, err := q.Get()
		require.NoError(t, err)
		w, ok := e.WorkItem()
		require.True(t, ok)
		assert.Equal(t, i, w.ItemID)
		assert.Equal(t, 4-i, tr.Before)
		assert.Equal(t, 3-i, tr.After)
	}
	assert.Equal(t, 0, q.Len())
}

func TestBoundedQueue_WrapsAroundRingBuffer(t *testing.T) {
	// GIVEN a queue of capacity 2 cycled through many more entries than it holds
	q := newQueue(t, 2)
	for i := 1; i <= 7; i++ {
		_, err := q.Put(Item(NewWorkItem(i, i)))
		require.NoError(t, err)
		e, _, err := q.Get()
		require.NoError(t, err)

		// THEN FIFO order survives the wrap
		w, _ := e.WorkItem()
		assert.Equal(t, i, w.ItemID)
	}
}

func TestBoundedQueue_Put_BlocksWhileFull(t *testing.T) {
	// GIVEN a full queue of capacity 1
	q := newQueue(t, 1)
	_, err := q.Put(Item(NewWorkItem(1, 0)))
	require.NoError(t, err)

	// WHEN a second Put is attempted
	done := make(chan Transition)
	go func() {
		tr, err := q.Put(Item(NewWorkItem(2, 1)))
		assert.NoError(t, err)
		done <- tr
	}()

	// THEN it does not return until a Get frees a slot
	select {
	case <-done:
		t.Fatal("Put returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, q.Len())

	_, _, err = q.Get()
	require.NoError(t, err)
	select {
	case tr := <-done:
		assert.Equal(t, 0, tr.Before)
		assert.Equal(t, 1, tr.After)
	case <-time.After(time.Second):
		t.Fatal("Put did not wake after Get")
	}
}

func TestBoundedQueue_Get_BlocksWhileEmpty(t *testing.T) {
	// GIVEN an empty queue
	q := newQueue(t, 2)

	// WHEN Get is called
	done := make(chan Entry)
	go func() {
		e, _, err := q.Get()
		assert.NoError(t, err)
		done <- e
	}()

	// THEN it waits for a Put
	select {
	case <-done:
		t.Fatal("Get returned on an empty queue")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := q.Put(Stop())
	require.NoError(t, err)
	select {
	case e := <-done:
		assert.True(t, e.IsStop())
	case <-time.After(time.Second):
		t.Fatal("Get did not wake after Put")
	}
}

func TestBoundedQueue_Abort_WakesBlockedCallers(t *testing.T) {
	// GIVEN one goroutine blocked in Get on an empty queue and one blocked in
	// Put on a full queue
	empty := newQueue(t, 1)
	full := newQueue(t, 1)
	_, err := full.Put(Item(NewWorkItem(1, 0)))
	require.NoError(t, err)

	errs := make(chan error, 2)
	go func() {
		_, _, err := empty.Get()
		errs <- err
	}()
	go func() {
		_, err := full.Put(Item(NewWorkItem(2, 1)))
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// WHEN both queues are aborted
	empty.Abort()
	full.Abort()

	// THEN both calls return ErrQueueAborted
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrQueueAborted)
		case <-time.After(time.Second):
			t.Fatal("aborted call did not return")
		}
	}
	assert.True(t, full.Aborted())
	_, err = full.Put(Stop())
	assert.ErrorIs(t, err, ErrQueueAborted)
}

func TestBoundedQueue_ConcurrentPutGet_NeverExceedsCapacity(t *testing.T) {
	// GIVEN a small queue shared by 4 putters and 4 getters
	const capacity, perWorker, workers = 3, 200, 4
	q := newQueue(t, capacity)

	var mu sync.Mutex
	var transitions []Transition
	record := func(tr Transition) {
		mu.Lock()
		transitions = append(transitions, tr)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tr, err := q.Put(Item(NewWorkItem(w*perWorker+i+1, 0)))
				assert.NoError(t, err)
				record(tr)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, tr, err := q.Get()
				assert.NoError(t, err)
				record(tr)
			}
		}()
	}
	wg.Wait()

	// THEN every transition is within bounds, ticks are unique, and the queue ends empty
	require.Len(t, transitions, 2*workers*perWorker)
	ticks := make(map[uint64]bool)
	for _, tr := range transitions {
		assert.GreaterOrEqual(t, tr.Before, 0)
		assert.LessOrEqual(t, tr.After, capacity)
		assert.False(t, ticks[tr.Tick], "tick %d seen twice", tr.Tick)
		ticks[tr.Tick] = true
	}
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, capacity, q.Cap())
}
