package builtin

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// Dequeue is the DequeBuffering variant: it keys its queue by each
// event's signature, replacing (not duplicating) an entry that reuses a
// sign already present — and resets that entry's position to the end of
// the insertion order, per the resolved "reset order on re-insert"
// choice (the alternative, preserving the original position, is not
// implemented here).
type Dequeue struct {
	command.Command
	maxsize int
	order   []string
	items   map[string]*event.Event
}

func NewDequeue() command.Instance {
	return &Dequeue{
		Command: command.Command{Role: command.RoleBuffering},
		items:   map[string]*event.Event{},
	}
}

func (c *Dequeue) Base() *command.Command { return &c.Command }

func (c *Dequeue) Setup(ctx context.Context, seed *event.Event, env any) error {
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

func (c *Dequeue) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev != nil {
			sign := ev.Sign()
			if _, exists := c.items[sign]; exists {
				c.order = removeString(c.order, sign)
			}
			c.items[sign] = ev.Clone()
			c.order = append(c.order, sign)
		}
		ready := ev == nil || (ending && remain == 0) || len(c.order) >= c.maxsize
		if !ready {
			return
		}
		for _, sign := range c.order {
			if !yield(c.items[sign]) {
				return
			}
		}
		c.order = c.order[:0]
		c.items = map[string]*event.Event{}
	}
}

func (c *Dequeue) Remain() int { return len(c.order) }

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
