package dispatcher_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/dispatcher"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/kvstore/memstore"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
	"github.com/jpclipffel/m42pl-core/pkg/script"
)

type countingGenerator struct {
	command.Command
	n int
}

func (g *countingGenerator) Base() *command.Command { return &g.Command }
func (g *countingGenerator) Start(context.Context, *event.Event) pipeline.GeneratorSource {
	return &countingSource{remaining: g.n}
}

type countingSource struct {
	remaining int
	emitted   int
}

func (s *countingSource) Next(context.Context) (*event.Event, bool, error) {
	if s.remaining == 0 {
		return nil, true, nil
	}
	s.remaining--
	ev := event.New(map[string]any{"n": int64(s.emitted)}, nil)
	s.emitted++
	return ev, false, nil
}

func TestRegisterUnregisterRoundTrip(t *testing.T) {
	kv := memstore.New()
	ctx := context.Background()
	rec := dispatcher.Record{Name: "main", Dispatcher: "test", Status: dispatcher.StateRunning}

	require.NoError(t, dispatcher.Register(ctx, kv, "123", rec))

	got, err := kv.Read(ctx, "dispatchers:123", nil)
	require.NoError(t, err)
	gotRec, ok := got.(dispatcher.Record)
	require.True(t, ok)
	require.Equal(t, dispatcher.StateRunning, gotRec.Status)

	require.NoError(t, dispatcher.Unregister(ctx, kv, "123"))
	got, err = kv.Read(ctx, "dispatchers:123", nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDispatcherRunDrivesPipelineAndSinksEvents(t *testing.T) {
	gen := &countingGenerator{Command: command.Command{Alias: "make", Role: command.RoleGenerating}, n: 3}
	main, err := pipeline.Build(script.MainPipelineName, []command.Instance{gen})
	require.NoError(t, err)

	prog := &script.Program{Pipelines: pipeline.NewOrderedPipelines()}
	prog.Pipelines.Set(script.MainPipelineName, main)

	kv := memstore.New()
	pctx := pipeline.NewContext(prog.Pipelines, kv)

	var sunk []int64
	d := dispatcher.New("test", dispatcher.NewRegistry())
	d.KV = kv
	d.Sink = func(ev *event.Event) error {
		n, _ := ev.Data["n"].(int64)
		sunk = append(sunk, n)
		return nil
	}

	err = d.Run(context.Background(), pctx, prog, "pid-1")
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2}, sunk)

	// The record was unregistered once the run completed.
	got, err := kv.Read(context.Background(), "dispatchers:pid-1", nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDispatcherRunUnknownMainPipelineErrors(t *testing.T) {
	prog := &script.Program{Pipelines: pipeline.NewOrderedPipelines()}
	pctx := pipeline.NewContext(prog.Pipelines, nil)
	d := dispatcher.New("test", dispatcher.NewRegistry())

	err := d.Run(context.Background(), pctx, prog, "pid-2")
	require.Error(t, err)
}

func TestRegistryRejectsInvalidAlias(t *testing.T) {
	reg := dispatcher.NewRegistry()
	err := reg.Register("bad alias!", func(ctx *pipeline.Context) *dispatcher.Dispatcher { return nil })
	require.Error(t, err)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := dispatcher.NewRegistry()
	factory := func(ctx *pipeline.Context) *dispatcher.Dispatcher {
		return dispatcher.New("local", reg)
	}
	require.NoError(t, reg.Register("local", factory))

	got, ok := reg.Lookup("local")
	require.True(t, ok)
	require.NotNil(t, got)

	_, ok = reg.Lookup("missing")
	require.False(t, ok)
}
