package trace

import (
	"sort"
	"sync"
)

// Recorder collects events from concurrently running workers (goroutine-safe).
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates a Recorder ready for recording.
func NewRecorder() *Recorder {
	return &Recorder{events: make([]Event, 0)}
}

// Observe appends an event. Arrival order at the recorder is not queue order;
// use Events to read them back ordered by Tick.
func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events. Runs appear in the order they
// were first observed; within a run events are ordered by Tick.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	result := make([]Event, len(r.events))
	copy(result, r.events)
	r.mu.Unlock()

	runOrder := make(map[string]int)
	for _, e := range result {
		if _, ok := runOrder[e.RunID]; !ok {
			runOrder[e.RunID] = len(runOrder)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		ri, rj := runOrder[result[i].RunID], runOrder[result[j].RunID]
		if ri != rj {
			return ri < rj
		}
		return result[i].Tick < result[j].Tick
	})
	return result
}

// ForRun returns the events of one run ordered by Tick.
func (r *Recorder) ForRun(runID string) []Event {
	all := r.Events()
	result := make([]Event, 0, len(all))
	for _, e := range all {
		if e.RunID == runID {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = r.events[:0]
}
