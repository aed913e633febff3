package builtin_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jpclipffel/m42pl-core/pkg/builtin"
	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/kvstore/memstore"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
	"github.com/jpclipffel/m42pl-core/pkg/script"
)

func newRegistry(t *testing.T) *command.Registry {
	reg := command.NewRegistry(nil)
	require.NoError(t, builtin.Register(reg))
	return reg
}

func runMainReg(t *testing.T, reg *command.Registry, src string) ([]map[string]any, *pipeline.Context) {
	prog, err := script.Parse(src, reg, "test")
	require.NoError(t, err)
	main, ok := prog.Pipelines.Get(script.MainPipelineName)
	require.True(t, ok)

	pctx := pipeline.NewContext(prog.Pipelines, memstore.New())
	var out []map[string]any
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for ev := range main.Run(ctx, pctx, nil) {
		out = append(out, ev.Data)
	}
	return out, pctx
}

func runMain(t *testing.T, src string) ([]map[string]any, *pipeline.Context) {
	return runMainReg(t, newRegistry(t), src)
}

// wakeupProbe is a test-only fixture: it counts every true wakeup pass
// (event == nil, ending == false) it is called with, letting a test
// assert that a pipeline's generator-await timeout actually fired
// rather than merely that no event was lost (a property that would
// hold even with the timeout disabled entirely).
type wakeupProbe struct {
	command.Command
	wakeups *int64
}

func newWakeupProbeFactory(wakeups *int64) command.Factory {
	return func() command.Instance {
		return &wakeupProbe{Command: command.Command{Role: command.RoleStreaming}, wakeups: wakeups}
	}
}

func (c *wakeupProbe) Base() *command.Command { return &c.Command }

func (c *wakeupProbe) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev == nil {
			if !ending {
				atomic.AddInt64(c.wakeups, 1)
			}
			return
		}
		yield(ev)
	}
}

func (c *wakeupProbe) Remain() int { return 0 }

// Scenario 1: make + eval doubling a field.
func TestScenarioMakeThenEval(t *testing.T) {
	out, _ := runMain(t, "| make count=3 | eval x=`i * 2`")
	require.Len(t, out, 3)
	for i, ev := range out {
		require.Equal(t, int64(i), ev["i"])
		require.Equal(t, int64(i*2), ev["x"])
	}
}

// Scenario 2: buffer drains at maxsize and once more at end-of-stream.
func TestScenarioBufferThenCount(t *testing.T) {
	out, _ := runMain(t, "| make count=5 | buffer maxsize=2 | count")
	require.Len(t, out, 1)
	require.Equal(t, int64(5), out[0]["count"])
}

// Scenario 3: dedup by a field value halves the stream.
func TestScenarioDedupThenCount(t *testing.T) {
	out, _ := runMain(t, "| make count=4 | eval i=`i % 2` | dedup sign_by=i | count")
	require.Len(t, out, 1)
	require.Equal(t, int64(2), out[0]["count"])
}

// Scenario 4: reltime resolves to one hour before the current hour mark.
func TestScenarioRelTime(t *testing.T) {
	out, _ := runMain(t, `| make count=1 | eval t=`+"`"+`reltime("1h@h")`+"`")
	require.Len(t, out, 1)
	got, ok := out[0]["t"].(time.Time)
	require.True(t, ok)
	want := time.Now().UTC().Truncate(time.Hour).Add(-time.Hour)
	require.WithinDuration(t, want, got, time.Millisecond)
}

// Scenario 5: a PipeRef sub-pipeline collapses to a list of N event data maps.
func TestScenarioPipeRefCollapsesToList(t *testing.T) {
	out, _ := runMain(t, "| make count=1 | eval r=[ | make count=3 | eval v=`i` ]")
	require.Len(t, out, 1)
	list, ok := out[0]["r"].([]any)
	require.True(t, ok)
	require.Len(t, list, 3)
	for i, item := range list {
		m, ok := item.(map[string]any)
		require.True(t, ok)
		require.Equal(t, int64(i), m["v"])
	}
}

// Scenario 6: a short generator-await timeout forces at least one wakeup
// pass while the generator itself is slow; no event is lost.
func TestScenarioTimeoutForcesWakeupWithoutDroppingEvents(t *testing.T) {
	reg := newRegistry(t)
	var wakeups int64
	require.NoError(t, reg.Register(command.Descriptor{
		Alias:  "wakeupprobe",
		About:  "Test-only fixture counting generator-await wakeup passes.",
		Syntax: "wakeupprobe",
	}, newWakeupProbeFactory(&wakeups)))

	// The probe heads the processor chain: a wakeup pass calls only the
	// first processor with nil, and later ones see only what it yields.
	out, _ := runMainReg(t, reg, "| make count=2 delay=0.05 | wakeupprobe | timeout 0.001 | slow 0.1")

	require.GreaterOrEqual(t, atomic.LoadInt64(&wakeups), int64(1),
		"expected the 1ms generator-await timeout to fire at least one wakeup pass against the 50ms-delayed generator")
	require.Len(t, out, 2)
	require.Equal(t, int64(0), out[0]["i"])
	require.Equal(t, int64(1), out[1]["i"])
}
