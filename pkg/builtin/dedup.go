package builtin

import (
	"context"
	"fmt"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// Dedup drops any event whose sign_by key was already seen, keeping the
// first occurrence. With no sign_by kwarg given it falls back to the
// event's own signature.
type Dedup struct {
	command.Command
	seen map[string]bool
}

func NewDedup() command.Instance {
	return &Dedup{Command: command.Command{Role: command.RoleStreaming}, seen: map[string]bool{}}
}

func (c *Dedup) Base() *command.Command { return &c.Command }

func (c *Dedup) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev == nil {
			return
		}
		key := c.keyFor(ctx, ev, env)
		if c.seen[key] {
			return
		}
		c.seen[key] = true
		yield(ev)
	}
}

func (c *Dedup) keyFor(ctx context.Context, ev *event.Event, env field.Env) string {
	d, ok := c.Kwargs["sign_by"]
	if !ok {
		return ev.Sign()
	}
	v, err := d.Read(ctx, ev, env)
	if err != nil {
		return ev.Sign()
	}
	return fmt.Sprintf("%v", v)
}

func (c *Dedup) Remain() int { return 0 }
