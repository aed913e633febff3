package pipeline_test

import (
	"context"
	"testing"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// fakeGenerator emits `count` events carrying an incrementing "i" field,
// then signals done.
type fakeGenerator struct {
	command.Command
	count int
}

func (g *fakeGenerator) Base() *command.Command { return &g.Command }

func (g *fakeGenerator) Start(context.Context, *event.Event) pipeline.GeneratorSource {
	return &fakeSource{remaining: g.count}
}

type fakeSource struct {
	remaining int
	emitted   int
}

func (s *fakeSource) Next(context.Context) (*event.Event, bool, error) {
	if s.remaining == 0 {
		return nil, true, nil
	}
	s.remaining--
	ev := event.New(map[string]any{"i": int64(s.emitted)}, nil)
	s.emitted++
	return ev, false, nil
}

// fakeDoubler multiplies the "i" field by 2 and passes the event through;
// it yields nothing on the final drain pass.
type fakeDoubler struct {
	command.Command
}

func (d *fakeDoubler) Base() *command.Command { return &d.Command }

func (d *fakeDoubler) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev == nil {
			return
		}
		i, _ := ev.Data["i"].(int64)
		out := event.Derive(ev, map[string]any{"i": i * 2}, nil, "")
		yield(out)
	}
}

func (d *fakeDoubler) Remain() int { return 0 }

func newTestContext() *pipeline.Context {
	return pipeline.NewContext(pipeline.NewOrderedPipelines(), nil)
}

func TestBuildClassifiesRoles(t *testing.T) {
	gen := &fakeGenerator{Command: command.Command{Alias: "gen", Role: command.RoleGenerating}, count: 3}
	proc := &fakeDoubler{Command: command.Command{Alias: "double", Role: command.RoleStreaming}}
	p, err := pipeline.Build("main", []command.Instance{gen, proc})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if p.Generator != gen {
		t.Fatalf("generator not classified correctly")
	}
	if len(p.Processors) != 1 {
		t.Fatalf("got %d processors, want 1", len(p.Processors))
	}
}

func TestBuildRejectsTwoGenerators(t *testing.T) {
	gen1 := &fakeGenerator{Command: command.Command{Alias: "gen1", Role: command.RoleGenerating}, count: 1}
	gen2 := &fakeGenerator{Command: command.Command{Alias: "gen2", Role: command.RoleGenerating}, count: 1}
	_, err := pipeline.Build("main", []command.Instance{gen1, gen2})
	if err == nil {
		t.Fatalf("expected an error for two generating commands")
	}
}

func TestRunProducesTransformedEvents(t *testing.T) {
	gen := &fakeGenerator{Command: command.Command{Alias: "gen", Role: command.RoleGenerating}, count: 3}
	proc := &fakeDoubler{Command: command.Command{Alias: "double", Role: command.RoleStreaming}}
	p, err := pipeline.Build("main", []command.Instance{gen, proc})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	pctx := newTestContext()
	var got []int64
	for ev := range p.Run(context.Background(), pctx, nil) {
		i, _ := ev.Data["i"].(int64)
		got = append(got, i)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 4 {
		t.Fatalf("got %v, want [0 2 4]", got)
	}
}

func TestRunWithNoGeneratorYieldsNothing(t *testing.T) {
	proc := &fakeDoubler{Command: command.Command{Alias: "double", Role: command.RoleStreaming}}
	p, err := pipeline.Build("main", []command.Instance{proc})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	pctx := newTestContext()
	count := 0
	for range p.Run(context.Background(), pctx, nil) {
		count++
	}
	if count != 0 {
		t.Fatalf("got %d events, want 0", count)
	}
}
