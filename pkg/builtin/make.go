package builtin

import (
	"context"
	"time"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// Make is the fixture generator: it produces count synthetic events,
// each carrying an incrementing integer field "i". An optional delay
// (seconds) holds Next before each emission, for tests that need to
// force a pipeline's generator-await timeout to actually elapse.
type Make struct {
	command.Command
	count int64
	delay time.Duration
}

func NewMake() command.Instance {
	return &Make{Command: command.Command{Role: command.RoleGenerating}}
}

func (c *Make) Base() *command.Command { return &c.Command }

func (c *Make) Setup(ctx context.Context, seed *event.Event, env any) error {
	v, err := readKwarg(ctx, &c.Command, seed, env, "count", int64(0))
	if err != nil {
		return err
	}
	n, _ := toInt64(v)
	c.count = n

	d, err := readKwarg(ctx, &c.Command, seed, env, "delay", float64(0))
	if err != nil {
		return err
	}
	secs, _ := toFloat64(d)
	c.delay = time.Duration(secs * float64(time.Second))
	return nil
}

func (c *Make) Start(context.Context, *event.Event) pipeline.GeneratorSource {
	return &makeSource{remaining: c.count, delay: c.delay}
}

type makeSource struct {
	remaining int64
	emitted   int64
	delay     time.Duration
}

func (s *makeSource) Next(ctx context.Context) (*event.Event, bool, error) {
	if s.remaining <= 0 {
		return nil, true, nil
	}
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	s.remaining--
	ev := event.New(map[string]any{"i": s.emitted}, nil)
	s.emitted++
	return ev, false, nil
}
