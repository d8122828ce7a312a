package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/boundedsim/sim/trace"
)

// Observer receives instrumentation events. Observe is called synchronously on
// the worker goroutine that performed the queue operation, so implementations
// must be goroutine-safe and should return quickly.
type Observer interface {
	Observe(e trace.Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(e trace.Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e trace.Event) {
	f(e)
}

// LogObserver writes each event as one log entry tagged with the worker name
// in the "thread" field.
type LogObserver struct {
	Logger logrus.FieldLogger
	Level  logrus.Level
}

// NewLogObserver logs events at Info level.
func NewLogObserver(logger logrus.FieldLogger) *LogObserver {
	return &LogObserver{Logger: logger, Level: logrus.InfoLevel}
}

// Observe implements Observer.
func (o *LogObserver) Observe(e trace.Event) {
	entry := o.Logger.WithFields(logrus.Fields{
		"thread": e.Worker,
		"run_id": e.RunID,
		"op":     string(e.Op),
		"tick":   e.Tick,
	})
	entry.Log(o.Level, EventMessage(e))
}

// EventMessage renders an event the way the log stream shows it, e.g.
// "Produced WorkItem(id=1, seq=0)   |  Buffer: 0 -> 1".
func EventMessage(e trace.Event) string {
	buffer := "|  Buffer: " + Transition{Before: e.Before, After: e.After}.String()
	if !e.HasItem {
		return "Received STOP_SIGNAL. Quitting.  " + buffer
	}
	item := NewWorkItem(e.ItemID, e.SequenceNumber).String()
	// single-digit ids get one extra space so the buffer column lines up
	spacing := "  "
	if e.ItemID < 10 {
		spacing = "   "
	}
	verb := "Produced"
	if e.Op == trace.OpConsumed {
		verb = "Consumed"
	}
	return verb + " " + item + spacing + buffer
}

// fanOut delivers each event to every observer in order.
type fanOut []Observer

func (f fanOut) Observe(e trace.Event) {
	for _, o := range f {
		o.Observe(e)
	}
}
