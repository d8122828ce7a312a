package cmd

import (
	"fmt"
	"io"
	"strings"
)

// printBanner writes the welcome text shown before a run.
func printBanner(w io.Writer) {
	rule := strings.Repeat("=", 60)
	lines := []string{
		rule,
		"Producer-Consumer Simulation",
		rule,
		"",
		"Welcome to the Producer-Consumer Pattern Demonstration!",
		"",
		"This simulation demonstrates concurrent programming with multiple",
		"producer and consumer threads working together:",
		"",
		"  • Producer Threads: Create work items and add them to a",
		"    shared buffer (queue)",
		"  • Consumer Threads: Retrieve work items from the buffer",
		"    and process them",
		"",
		"The output shows real-time chronological order of events between threads.",
		"Watch how the buffer state changes as items are produced",
		"and consumed concurrently!",
		"",
		strings.Repeat("-", 60),
		"",
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
