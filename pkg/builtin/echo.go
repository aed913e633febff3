package builtin

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// Echo logs each event's data at Info level and passes it through
// unchanged — a terminal fixture command for inspecting a pipeline's
// output in tests.
type Echo struct {
	command.Command
}

func NewEcho() command.Instance {
	return &Echo{Command: command.Command{Role: command.RoleStreaming}}
}

func (c *Echo) Base() *command.Command { return &c.Command }

func (c *Echo) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev == nil {
			return
		}
		if c.Logger != nil {
			c.Logger.Info("echo", "data", ev.Data)
		}
		yield(ev)
	}
}

func (c *Echo) Remain() int { return 0 }
