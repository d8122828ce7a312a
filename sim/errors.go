package sim

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrQueueAborted is returned by Put and Get once the queue has been aborted.
// Under correct use a queue is never aborted; the manager only aborts it to
// release blocked workers after a failure or cancellation.
var ErrQueueAborted = errors.New("bounded queue aborted")

// ConfigurationError reports an invalid constructor argument. It is returned
// before any goroutine starts, and no partial state is left behind.
type ConfigurationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s, got %d", e.Field, e.Reason, e.Value)
}

func mustBePositive(field string, value int) error {
	if value > 0 {
		return nil
	}
	return errors.WithStack(&ConfigurationError{Field: field, Value: value, Reason: "must be greater than 0"})
}

// WorkerFailure wraps an unexpected fault inside a producer or consumer.
type WorkerFailure struct {
	Worker string
	Err    error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("worker %s failed: %v", e.Worker, e.Err)
}

func (e *WorkerFailure) Unwrap() error {
	return e.Err
}

// InvariantViolation signals a synchronization bug: queue length out of range,
// lost or duplicated items, a missing sentinel. It must never be swallowed.
type InvariantViolation struct {
	Detail string
	Err    error
}

func (e *InvariantViolation) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invariant violation: %s: %v", e.Detail, e.Err)
	}
	return "invariant violation: " + e.Detail
}

func (e *InvariantViolation) Unwrap() error {
	return e.Err
}
