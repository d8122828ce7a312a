package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRun is one producer and one consumer moving two items through a queue of capacity 2.
func validRun() []Event {
	return []Event{
		{Worker: "Producer-1", Op: OpProduced, HasItem: true, ItemID: 1, Tick: 1, Before: 0, After: 1},
		{Worker: "Producer-1", Op: OpProduced, HasItem: true, ItemID: 2, SequenceNumber: 1, Tick: 2, Before: 1, After: 2},
		{Worker: "Consumer-1", Op: OpConsumed, HasItem: true, ItemID: 1, Tick: 3, Before: 2, After: 1},
		{Worker: "Consumer-1", Op: OpConsumed, HasItem: true, ItemID: 2, SequenceNumber: 1, Tick: 4, Before: 1, After: 0},
		{Worker: "Consumer-1", Op: OpTerminated, Tick: 6, Before: 1, After: 0},
	}
}

func TestSummarize_NilEvents_ReturnsZeroSummary(t *testing.T) {
	// GIVEN no events
	// WHEN summarized
	s := Summarize(nil)

	// THEN all counts are zero and the map is usable
	assert.Equal(t, 0, s.Produced)
	assert.Equal(t, 0, s.FinalDepth)
	assert.NotNil(t, s.WorkerEventCount)
}

func TestSummarize_CountsOpsAndDepth(t *testing.T) {
	s := Summarize(validRun())

	assert.Equal(t, 2, s.Produced)
	assert.Equal(t, 2, s.Consumed)
	assert.Equal(t, 1, s.Terminated)
	assert.Equal(t, 2, s.MaxDepth)
	assert.Equal(t, 0, s.FinalDepth)
	assert.Equal(t, 2, s.WorkerEventCount["Producer-1"])
	assert.Equal(t, 3, s.WorkerEventCount["Consumer-1"])
}

func TestValidate_ValidRun_NoError(t *testing.T) {
	assert.NoError(t, Validate(validRun(), 2, 2, 1))
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	// GIVEN a run whose snapshots overflow capacity, run backwards, and end non-empty
	events := []Event{
		{Op: OpProduced, Tick: 1, Before: 2, After: 3},
		{Op: OpConsumed, Tick: 2, Before: 1, After: 2},
	}

	// WHEN validated against capacity 2, 1 item, 1 consumer
	err := Validate(events, 2, 1, 1)

	// THEN all problems are reported in one error
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "outside [0, 2]")
	assert.Contains(t, msg, "consumed increased queue length")
	assert.Contains(t, msg, "terminated 0 events, want 1")
	assert.Contains(t, msg, "final queue length 2, want 0")
}
