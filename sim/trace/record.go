// Package trace provides instrumentation-event recording for bounded-buffer runs.
// This package has no dependencies on sim/ and stores pure data types.
package trace

import (
	"fmt"
	"time"
)

// Op is the kind of queue action an event describes.
type Op string

const (
	// OpProduced: a producer put a work item.
	OpProduced Op = "produced"
	// OpConsumed: a consumer took a work item.
	OpConsumed Op = "consumed"
	// OpTerminated: a consumer took its stop sentinel and exited.
	OpTerminated Op = "terminated"
)

// validOps maps accepted op strings.
var validOps = map[Op]bool{
	OpProduced:   true,
	OpConsumed:   true,
	OpTerminated: true,
}

// IsValidOp returns true if the given string is a recognized op.
func IsValidOp(op string) bool {
	return validOps[Op(op)]
}

// Event captures a single produce, consume or terminate action.
type Event struct {
	RunID  string
	Worker string // producer or consumer name, e.g. "Producer-1"
	Op     Op

	// Item fields are meaningful only when HasItem is set (false for OpTerminated).
	HasItem        bool
	ItemID         int
	SequenceNumber int

	Tick   uint64 // queue operation order; unique within one run
	Before int    // queue length before the operation
	After  int    // queue length after the operation
	Time   time.Time
}

// Delta is the change in queue length caused by the event.
func (e Event) Delta() int {
	return e.After - e.Before
}

func (e Event) String() string {
	if !e.HasItem {
		return fmt.Sprintf("[%s] %s  |  Buffer: %d -> %d", e.Worker, e.Op, e.Before, e.After)
	}
	return fmt.Sprintf("[%s] %s WorkItem(id=%d, seq=%d)  |  Buffer: %d -> %d",
		e.Worker, e.Op, e.ItemID, e.SequenceNumber, e.Before, e.After)
}
