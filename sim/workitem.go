// Defines the WorkItem value passed from producers to consumers and the Entry
// variant that carries either a WorkItem or the stop sentinel through the queue.

package sim

import "fmt"

// WorkItem is an immutable unit of work: the source id it was produced for and
// the global sequence number stamped on it at production time.
// Two WorkItems are equal when both fields are equal.
type WorkItem struct {
	ItemID         int
	SequenceNumber int
}

// NewWorkItem stamps a source id with a sequence number.
func NewWorkItem(itemID, sequenceNumber int) WorkItem {
	return WorkItem{ItemID: itemID, SequenceNumber: sequenceNumber}
}

func (w WorkItem) String() string {
	return fmt.Sprintf("WorkItem(id=%d, seq=%d)", w.ItemID, w.SequenceNumber)
}

// EntryKind tags the variant held by an Entry.
type EntryKind int

const (
	// EntryItem carries a WorkItem. It is the zero value, so Entry{} is never a stop.
	EntryItem EntryKind = iota
	// EntryStop is the termination sentinel; exactly one is delivered per consumer.
	EntryStop
)

// Entry is the element type of the BoundedQueue: Item(WorkItem) | Stop.
type Entry struct {
	kind EntryKind
	item WorkItem
}

// Item wraps a WorkItem for enqueueing.
func Item(w WorkItem) Entry {
	return Entry{kind: EntryItem, item: w}
}

// Stop returns the termination sentinel.
func Stop() Entry {
	return Entry{kind: EntryStop}
}

// Kind reports which variant the entry holds.
func (e Entry) Kind() EntryKind {
	return e.kind
}

// IsStop reports whether the entry is the termination sentinel.
func (e Entry) IsStop() bool {
	return e.kind == EntryStop
}

// WorkItem returns the carried item. ok is false for the stop sentinel.
func (e Entry) WorkItem() (w WorkItem, ok bool) {
	if e.kind != EntryItem {
		return WorkItem{}, false
	}
	return e.item, true
}

func (e Entry) String() string {
	if e.IsStop() {
		return "STOP_SIGNAL"
	}
	return e.item.String()
}
