package trace

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Summary aggregates statistics from the events of one run.
type Summary struct {
	Produced         int
	Consumed         int
	Terminated       int
	MaxDepth         int
	FinalDepth       int
	WorkerEventCount map[string]int // worker name → number of events
}

// Summarize computes aggregate statistics from events ordered by Tick.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(events []Event) *Summary {
	summary := &Summary{
		WorkerEventCount: make(map[string]int),
	}
	for _, e := range events {
		switch e.Op {
		case OpProduced:
			summary.Produced++
		case OpConsumed:
			summary.Consumed++
		case OpTerminated:
			summary.Terminated++
		}
		summary.WorkerEventCount[e.Worker]++
		if e.After > summary.MaxDepth {
			summary.MaxDepth = e.After
		}
		if e.Before > summary.MaxDepth {
			summary.MaxDepth = e.Before
		}
	}
	if len(events) > 0 {
		summary.FinalDepth = events[len(events)-1].After
	}
	return summary
}

// Validate checks the events of one completed run (ordered by Tick) against the
// bounded-buffer properties: every snapshot lies in [0, capacity], produce events
// never shrink the queue, consume and terminate events never grow it, the counts
// match items and consumers, and the queue ends empty. All violations are
// reported together.
func Validate(events []Event, capacity, items, consumers int) error {
	var result *multierror.Error
	for _, e := range events {
		if e.Before < 0 || e.Before > capacity || e.After < 0 || e.After > capacity {
			result = multierror.Append(result, fmt.Errorf("tick %d: snapshot %d -> %d outside [0, %d]", e.Tick, e.Before, e.After, capacity))
		}
		switch e.Op {
		case OpProduced:
			if e.Delta() < 0 {
				result = multierror.Append(result, fmt.Errorf("tick %d: %s decreased queue length", e.Tick, e.Op))
			}
		case OpConsumed, OpTerminated:
			if e.Delta() > 0 {
				result = multierror.Append(result, fmt.Errorf("tick %d: %s increased queue length", e.Tick, e.Op))
			}
		default:
			result = multierror.Append(result, fmt.Errorf("tick %d: unknown op %q", e.Tick, e.Op))
		}
	}

	s := Summarize(events)
	if s.Produced != items {
		result = multierror.Append(result, fmt.Errorf("produced %d events, want %d", s.Produced, items))
	}
	if s.Consumed != items {
		result = multierror.Append(result, fmt.Errorf("consumed %d events, want %d", s.Consumed, items))
	}
	if s.Terminated != consumers {
		result = multierror.Append(result, fmt.Errorf("terminated %d events, want %d", s.Terminated, consumers))
	}
	if s.FinalDepth != 0 {
		result = multierror.Append(result, fmt.Errorf("final queue length %d, want 0", s.FinalDepth))
	}
	return result.ErrorOrNil()
}
