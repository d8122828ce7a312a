// Package testutil provides shared test infrastructure for the bounded-buffer
// simulator: golden transcript loading and line-set assertions used by sim/
// and cmd/ tests.
package testutil

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// GoldenTranscript is a worker-tagged event transcript stored under testdata/.
// Lines are grouped by worker; within a worker they keep run order.
type GoldenTranscript struct {
	Name  string
	Lines []string
}

// LoadGoldenTranscript loads testdata/<name>.golden. Blank lines and lines
// starting with '#' are skipped.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenTranscript(t *testing.T, name string) *GoldenTranscript {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", name+".golden")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to read golden transcript: %v", err)
	}
	defer f.Close()

	golden := &GoldenTranscript{Name: name}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		golden.Lines = append(golden.Lines, line)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to parse golden transcript: %v", err)
	}
	return golden
}

// AssertLines compares got against the golden lines one by one and reports
// the first difference.
func (g *GoldenTranscript) AssertLines(t *testing.T, got []string) {
	t.Helper()
	for i := 0; i < len(g.Lines) && i < len(got); i++ {
		if g.Lines[i] != got[i] {
			t.Fatalf("%s line %d:\n got: %q\nwant: %q", g.Name, i+1, got[i], g.Lines[i])
		}
	}
	if len(got) != len(g.Lines) {
		t.Fatalf("%s: got %d lines, want %d", g.Name, len(got), len(g.Lines))
	}
}
