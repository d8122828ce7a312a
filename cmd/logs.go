package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// mainThread labels entries that were not written by a worker.
const mainThread = "Main"

// captureHook keeps every log entry in memory so the run's log can be shown,
// and optionally saved, in timestamp order once all workers have finished.
type captureHook struct {
	mu      sync.Mutex
	entries []logrus.Entry
}

func newCaptureHook() *captureHook {
	return &captureHook{}
}

// Levels implements logrus.Hook.
func (h *captureHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *captureHook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, *e)
	return nil
}

// Sorted returns the captured entries ordered by timestamp, except that
// entries carrying a queue "tick" keep their timestamp slots but are ordered
// among themselves by tick, so buffer transitions read in the order the queue
// applied them.
func (h *captureHook) Sorted() []logrus.Entry {
	h.mu.Lock()
	entries := make([]logrus.Entry, len(h.entries))
	copy(entries, h.entries)
	h.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})

	var slots []int
	var ticked []logrus.Entry
	runOrder := make(map[string]int)
	for i, e := range entries {
		if _, ok := e.Data["tick"].(uint64); !ok {
			continue
		}
		run, _ := e.Data["run_id"].(string)
		if _, seen := runOrder[run]; !seen {
			runOrder[run] = len(runOrder)
		}
		slots = append(slots, i)
		ticked = append(ticked, e)
	}
	sort.SliceStable(ticked, func(i, j int) bool {
		ri, _ := ticked[i].Data["run_id"].(string)
		rj, _ := ticked[j].Data["run_id"].(string)
		if runOrder[ri] != runOrder[rj] {
			return runOrder[ri] < runOrder[rj]
		}
		return ticked[i].Data["tick"].(uint64) < ticked[j].Data["tick"].(uint64)
	})
	for k, slot := range slots {
		entries[slot] = ticked[k]
	}
	return entries
}

// Reset drops everything captured so far.
func (h *captureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// threadFormatter renders "[thread] - LEVEL - message".
type threadFormatter struct{}

// Format implements logrus.Formatter.
func (threadFormatter) Format(e *logrus.Entry) ([]byte, error) {
	thread, ok := e.Data["thread"].(string)
	if !ok || thread == "" {
		thread = mainThread
	}
	return []byte(fmt.Sprintf("[%s] - %s - %s\n", thread, strings.ToUpper(e.Level.String()), e.Message)), nil
}

// writeEntries formats entries one per line.
func writeEntries(w *bufio.Writer, entries []logrus.Entry, f logrus.Formatter) error {
	for i := range entries {
		line, err := f.Format(&entries[i])
		if err != nil {
			return errors.Wrap(err, "formatting log entry")
		}
		if _, err := w.Write(line); err != nil {
			return errors.Wrap(err, "writing log entry")
		}
	}
	return nil
}

// saveLogs writes entries to <baseDir>/simulation_logs/YYYY/MM/DD.txt, replacing
// any log already saved that day, and returns the directory it wrote to.
func saveLogs(entries []logrus.Entry, baseDir string, now time.Time) (string, error) {
	dir := filepath.Join(baseDir, "simulation_logs", fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating log directory %s", dir)
	}
	path := filepath.Join(dir, fmt.Sprintf("%02d.txt", now.Day()))
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "creating log file %s", path)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logrus.Errorf("Error closing file %s: %v", path, closeErr)
		}
	}()

	writer := bufio.NewWriter(file)
	if err := writeEntries(writer, entries, threadFormatter{}); err != nil {
		return "", err
	}
	if err := writer.Flush(); err != nil {
		return "", errors.Wrapf(err, "flushing log file %s", path)
	}
	logrus.Debugf("Successfully wrote %d log lines to '%s'", len(entries), path)
	return dir, nil
}
