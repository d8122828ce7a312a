package sim

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/inference-sim/boundedsim/sim/trace"
)

// Consumer takes entries off the queue until it receives a stop sentinel.
// Consumed items go to a private buffer that no other goroutine touches.
type Consumer struct {
	Name     string
	Queue    *BoundedQueue
	Observer Observer

	results []WorkItem
}

// Run loops on Get until the first stop sentinel, then returns. Get may block
// while the queue is empty.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "%s stopped", c.Name)
		}
		e, tr, err := c.Queue.Get()
		if err != nil {
			return errors.Wrapf(err, "%s getting next entry", c.Name)
		}

		ev := trace.Event{
			Worker: c.Name,
			Tick:   tr.Tick,
			Before: tr.Before,
			After:  tr.After,
			Time:   time.Now(),
		}
		w, ok := e.WorkItem()
		if !ok {
			ev.Op = trace.OpTerminated
			c.Observer.Observe(ev)
			return nil
		}
		c.results = append(c.results, w)
		ev.Op = trace.OpConsumed
		ev.HasItem = true
		ev.ItemID = w.ItemID
		ev.SequenceNumber = w.SequenceNumber
		c.Observer.Observe(ev)
	}
}

// Results returns the items consumed so far, in consumption order.
// Only read it after Run has returned.
func (c *Consumer) Results() []WorkItem {
	return c.results
}
