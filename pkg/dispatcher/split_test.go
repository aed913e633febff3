package dispatcher_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/dispatcher"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// fakeProc is a minimal Processor/Instance fixture shared by this
// package's tests: it passes events through unchanged.
type fakeProc struct {
	command.Command
}

func (f *fakeProc) Base() *command.Command { return &f.Command }
func (f *fakeProc) Remain() int            { return 0 }
func (f *fakeProc) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev != nil {
			yield(ev)
		}
	}
}

func newProc(alias string, role command.Role) *fakeProc {
	return &fakeProc{Command: command.Command{Alias: alias, Role: role}}
}

var mergeTypes = map[command.Role]bool{command.RoleMerging: true}

func TestSplitPipelineNoMergingCommandsYieldsOneSegment(t *testing.T) {
	a := newProc("a", command.RoleStreaming)
	b := newProc("b", command.RoleStreaming)
	p, err := pipeline.Build("main", []command.Instance{a, b})
	require.NoError(t, err)

	splits := dispatcher.SplitPipeline(p, true, 0, mergeTypes)
	require.Len(t, splits, 1)
	require.Len(t, splits[0].Processors, 2)
}

func TestSplitPipelineOpensSegmentAtEachMergingCommand(t *testing.T) {
	a := newProc("a", command.RoleStreaming)
	m1 := newProc("m1", command.RoleMerging)
	b := newProc("b", command.RoleStreaming)
	m2 := newProc("m2", command.RoleMerging)
	p, err := pipeline.Build("main", []command.Instance{a, m1, b, m2})
	require.NoError(t, err)

	splits := dispatcher.SplitPipeline(p, true, 0, mergeTypes)
	require.Len(t, splits, 3)
	require.Len(t, splits[0].Processors, 1) // [a]
	require.Len(t, splits[1].Processors, 2) // [m1, b]
	require.Len(t, splits[2].Processors, 1) // [m2]
}

func TestSplitPipelineUnifyFalseIsolatesMergingCommands(t *testing.T) {
	a := newProc("a", command.RoleStreaming)
	m1 := newProc("m1", command.RoleMerging)
	b := newProc("b", command.RoleStreaming)
	p, err := pipeline.Build("main", []command.Instance{a, m1, b})
	require.NoError(t, err)

	splits := dispatcher.SplitPipeline(p, false, 0, mergeTypes)
	require.Len(t, splits, 3)
	require.Len(t, splits[0].Processors, 1) // [a]
	require.Len(t, splits[1].Processors, 1) // [m1] alone
	require.Len(t, splits[2].Processors, 1) // [b]
}

func TestSplitPipelineRespectsMaxLayers(t *testing.T) {
	a := newProc("a", command.RoleStreaming)
	m1 := newProc("m1", command.RoleMerging)
	b := newProc("b", command.RoleStreaming)
	m2 := newProc("m2", command.RoleMerging)
	c := newProc("c", command.RoleStreaming)
	p, err := pipeline.Build("main", []command.Instance{a, m1, b, m2, c})
	require.NoError(t, err)

	splits := dispatcher.SplitPipeline(p, true, 2, mergeTypes)
	require.Len(t, splits, 2)
	require.Len(t, splits[0].Processors, 1)             // [a]
	require.Len(t, splits[1].Processors, 4)             // [m1, b, m2, c] unsplit past the cap
}

func TestSplitPipelineFirstSegmentCarriesGeneratorAndMetas(t *testing.T) {
	gen := &fakeGenerator{Command: command.Command{Alias: "gen", Role: command.RoleGenerating}}
	m1 := newProc("m1", command.RoleMerging)
	p, err := pipeline.Build("main", []command.Instance{gen, m1})
	require.NoError(t, err)

	splits := dispatcher.SplitPipeline(p, true, 0, mergeTypes)
	require.Len(t, splits, 1)
	require.Equal(t, gen, splits[0].Generator)
}

type fakeGenerator struct {
	command.Command
}

func (g *fakeGenerator) Base() *command.Command { return &g.Command }
func (g *fakeGenerator) Start(context.Context, *event.Event) pipeline.GeneratorSource {
	return nil
}
