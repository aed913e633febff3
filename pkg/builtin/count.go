package builtin

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// Count accumulates the number of events it has seen and emits a single
// event carrying that total once the stream truly ends (ev == nil and
// ending is true) — never on a mere wakeup pass (ev == nil, ending
// false).
type Count struct {
	command.Command
	n int64
}

func NewCount() command.Instance {
	return &Count{Command: command.Command{Role: command.RoleStreaming}}
}

func (c *Count) Base() *command.Command { return &c.Command }

func (c *Count) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev != nil {
			c.n++
			return
		}
		if !ending {
			return
		}
		out := event.New(map[string]any{"count": c.n}, nil)
		c.n = 0
		yield(out)
	}
}

func (c *Count) Remain() int { return 0 }
