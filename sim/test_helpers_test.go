package sim

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// quietLogger discards output so table-driven runs do not flood test logs.
func quietLogger() *logrus.Logger {
	logger, _ := logtest.NewNullLogger()
	return logger
}

// mustManager builds a manager with a silent logger plus any extra options.
func mustManager(t *testing.T, cfg Config, opts ...Option) *SimulationManager {
	t.Helper()
	m, err := NewSimulationManager(cfg, append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return m
}

// runWithWatchdog fails the test if Run does not return within timeout, which
// is how deadlocks surface.
func runWithWatchdog(t *testing.T, m *SimulationManager, timeout time.Duration) ([]WorkItem, error) {
	t.Helper()
	type outcome struct {
		result []WorkItem
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := m.Run(context.Background())
		done <- outcome{result, err}
	}()
	select {
	case o := <-done:
		return o.result, o.err
	case <-time.After(timeout):
		t.Fatalf("Run did not return within %v (deadlock?)", timeout)
		return nil, nil
	}
}

func itemIDs(result []WorkItem) []int {
	ids := make([]int, len(result))
	for i, w := range result {
		ids[i] = w.ItemID
	}
	return ids
}

func seqRange(from, to int) []int {
	ids := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		ids = append(ids, i)
	}
	return ids
}
