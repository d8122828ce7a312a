package sim

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/boundedsim/sim/trace"
)

func assertCounter(t *testing.T, m *Metrics, op trace.Op, want float64) {
	t.Helper()
	assert.Equal(t, want, testutil.ToFloat64(m.Operations(op)), "counter for %s", op)
}

func TestMetrics_Observe_CountsAndTracksDepth(t *testing.T) {
	// GIVEN fresh metrics
	m := NewMetrics()

	// WHEN two produce events and one consume event are observed
	m.Observe(trace.Event{Op: trace.OpProduced, Tick: 1, Before: 0, After: 1})
	m.Observe(trace.Event{Op: trace.OpProduced, Tick: 2, Before: 1, After: 2})
	m.Observe(trace.Event{Op: trace.OpConsumed, Tick: 3, Before: 2, After: 1})

	// THEN counters and the depth gauge reflect them
	assertCounter(t, m, trace.OpProduced, 2)
	assertCounter(t, m, trace.OpConsumed, 1)
	assertCounter(t, m, trace.OpTerminated, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueDepth))
}

func TestMetrics_RecordRun_ByOutcome(t *testing.T) {
	m := NewMetrics()
	m.RecordRun(time.Millisecond, nil)
	m.RecordRun(time.Millisecond, errors.New("failed"))
	m.RecordRun(time.Millisecond, nil)

	assert.Equal(t, 2, testutil.CollectAndCount(m.runDuration), "one series per outcome")
}

func TestMetrics_WriteTextfile(t *testing.T) {
	// GIVEN metrics with one observed event
	m := NewMetrics()
	m.Observe(trace.Event{Op: trace.OpProduced, After: 1})

	// WHEN written to a textfile
	path := filepath.Join(t.TempDir(), "boundedsim.prom")
	require.NoError(t, m.WriteTextfile(path))

	// THEN the file holds the exposition text
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `boundedsim_queue_operations_total{op="produced"} 1`)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// registering twice on the global registry would panic; private registries must not
	a, b := NewMetrics(), NewMetrics()
	a.Observe(trace.Event{Op: trace.OpProduced})
	assertCounter(t, b, trace.OpProduced, 0)
}

func TestMetrics_Observe_DepthIgnoresStaleTicks(t *testing.T) {
	// GIVEN the final transition of a run observed before an earlier one
	m := NewMetrics()
	m.Observe(trace.Event{RunID: "a", Op: trace.OpTerminated, Tick: 8, Before: 1, After: 0})
	m.Observe(trace.Event{RunID: "a", Op: trace.OpTerminated, Tick: 7, Before: 2, After: 1})

	// THEN the gauge keeps the newest transition
	assert.Equal(t, 0.0, testutil.ToFloat64(m.queueDepth))
	assertCounter(t, m, trace.OpTerminated, 2)

	// AND a new run starts tracking again from its own ticks
	m.Observe(trace.Event{RunID: "b", Op: trace.OpProduced, Tick: 1, Before: 0, After: 1})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueDepth))
}

func TestMetrics_ManagerRun_DepthEndsAtZero(t *testing.T) {
	metrics := NewMetrics()
	m := mustManager(t, NewConfig(100, 2, 2, 4), WithMetrics(metrics))
	for run := 0; run < 10; run++ {
		_, err := runWithWatchdog(t, m, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 0.0, testutil.ToFloat64(metrics.queueDepth), "run %d", run)
	}
}
