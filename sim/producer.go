package sim

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/inference-sim/boundedsim/sim/trace"
)

// Producer stamps each id of its partition with a sequence number and puts the
// resulting WorkItem on the queue. It never enqueues the stop sentinel: the
// manager injects sentinels once every producer has returned.
//
// IDs[i] is stamped with Offset+i. Offset is the number of ids in earlier
// partitions, so sequence order matches id order across all producers.
type Producer struct {
	Name     string
	IDs      []int
	Offset   int
	Queue    *BoundedQueue
	Sequence *SequenceAllocator
	Observer Observer
}

// Run processes IDs in slice order. Claim may block until earlier partitions
// have stamped their ids, and Put may block while the queue is full.
func (p *Producer) Run(ctx context.Context) error {
	for i, id := range p.IDs {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "%s stopped before item %d", p.Name, id)
		}
		seq := p.Offset + i
		if err := p.Sequence.Claim(seq); err != nil {
			return errors.Wrapf(err, "%s stamping item %d", p.Name, id)
		}
		w := NewWorkItem(id, seq)
		tr, err := p.Queue.Put(Item(w))
		if err != nil {
			return errors.Wrapf(err, "%s putting %s", p.Name, w)
		}
		p.Observer.Observe(trace.Event{
			Worker:         p.Name,
			Op:             trace.OpProduced,
			HasItem:        true,
			ItemID:         w.ItemID,
			SequenceNumber: w.SequenceNumber,
			Tick:           tr.Tick,
			Before:         tr.Before,
			After:          tr.After,
			Time:           time.Now(),
		})
	}
	return nil
}
