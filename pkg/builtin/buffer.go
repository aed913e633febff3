package builtin

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// Buffer is a bounded FIFO queue: it enqueues an Event.Clone copy of
// every non-nil event it sees (fresh top-level Data and Meta maps; nested
// maps and slices are shared with the original), and becomes "ready" (draining its whole queue
// downstream) when the queue is full, on a wakeup tick (ev == nil), or
// at end-of-stream once every upstream buffering stage has also
// drained (ending && remain == 0).
type Buffer struct {
	command.Command
	maxsize int
	queue   []*event.Event
}

func NewBuffer() command.Instance {
	return &Buffer{Command: command.Command{Role: command.RoleBuffering}}
}

func (c *Buffer) Base() *command.Command { return &c.Command }

func (c *Buffer) Setup(ctx context.Context, seed *event.Event, env any) error {
	v, err := readKwarg(ctx, &c.Command, seed, env, "maxsize", int64(1))
	if err != nil {
		return err
	}
	n, _ := toInt64(v)
	if n <= 0 {
		n = 1
	}
	c.maxsize = int(n)
	return nil
}

func (c *Buffer) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev != nil {
			c.queue = append(c.queue, ev.Clone())
		}
		ready := ev == nil || (ending && remain == 0) || len(c.queue) >= c.maxsize
		if !ready {
			return
		}
		for _, qe := range c.queue {
			if !yield(qe) {
				return
			}
		}
		c.queue = c.queue[:0]
	}
}

func (c *Buffer) Remain() int { return len(c.queue) }
