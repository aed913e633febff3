package builtin

import (
	"context"
	"time"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// Timeout is a pass-through fixture command whose sole purpose is
// setting the pipeline's generator-await timeout: it implements
// command.TimeoutHint, read once its own Setup has resolved the
// configured duration, regardless of where in the chain it sits.
type Timeout struct {
	command.Command
	d time.Duration
}

func NewTimeout() command.Instance {
	return &Timeout{Command: command.Command{Role: command.RoleStreaming}}
}

func (c *Timeout) Base() *command.Command { return &c.Command }

func (c *Timeout) Setup(ctx context.Context, seed *event.Event, env any) error {
	v, err := readPositional(ctx, &c.Command, seed, env, 0, float64(0))
	if err != nil {
		return err
	}
	secs, _ := toFloat64(v)
	c.d = time.Duration(secs * float64(time.Second))
	return nil
}

func (c *Timeout) Timeout() time.Duration { return c.d }

func (c *Timeout) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev != nil {
			yield(ev)
		}
	}
}

func (c *Timeout) Remain() int { return 0 }
