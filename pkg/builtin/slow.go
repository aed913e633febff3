package builtin

import (
	"context"
	"time"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// Slow sleeps for a configured duration before passing an event
// through unchanged — a fixture for exercising the generator-await
// timeout's wakeup pass (see Timeout).
type Slow struct {
	command.Command
	d time.Duration
}

func NewSlow() command.Instance {
	return &Slow{Command: command.Command{Role: command.RoleStreaming}}
}

func (c *Slow) Base() *command.Command { return &c.Command }

func (c *Slow) Setup(ctx context.Context, seed *event.Event, env any) error {
	v, err := readPositional(ctx, &c.Command, seed, env, 0, float64(0))
	if err != nil {
		return err
	}
	secs, _ := toFloat64(v)
	c.d = time.Duration(secs * float64(time.Second))
	return nil
}

func (c *Slow) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev == nil {
			return
		}
		if c.d > 0 {
			timer := time.NewTimer(c.d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return
			}
		}
		yield(ev)
	}
}

func (c *Slow) Remain() int { return 0 }
