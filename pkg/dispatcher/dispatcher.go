// Package dispatcher implements the base that every concrete execution
// back-end (local process, REPL, HTTP worker, ...) builds on: splitting a
// pipeline around its merging commands, recording run state in a KV
// store, and driving the split pipelines to completion. Where events
// actually go once produced is left to an injected sink, matching the
// engine's "drive and sink are collaborators" scoping.
package dispatcher

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/kvstore"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
	"github.com/jpclipffel/m42pl-core/pkg/plan"
	"github.com/jpclipffel/m42pl-core/pkg/script"
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// Factory builds a dispatcher bound to a run's pipeline.Context.
type Factory func(ctx *pipeline.Context) *Dispatcher

type registryEntry struct {
	factory Factory
}

// Registry is the alias table mapping a dispatcher name to the Factory
// used to build it, mirroring command.Registry's validation. This
// repository registers no concrete dispatcher: an empty but usable
// Registry is still the correct base artifact, since concrete back-ends
// register into it from their own packages.
type Registry struct {
	entries map[string]registryEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]registryEntry{}}
}

// Register adds alias -> factory, rejecting malformed aliases the same
// way command.Registry does.
func (r *Registry) Register(alias string, factory Factory) error {
	if !aliasPattern.MatchString(alias) {
		return fmt.Errorf("invalid dispatcher alias %q: must match %s", alias, aliasPattern.String())
	}
	r.entries[alias] = registryEntry{factory: factory}
	return nil
}

func (r *Registry) Lookup(alias string) (Factory, bool) {
	e, ok := r.entries[alias]
	if !ok {
		return nil, false
	}
	return e.factory, true
}

// Dispatcher is the base execution driver for a parsed script. Run is a
// template method: split "main" around its merging commands, register a
// Record in kv, drive each split in order, update its status, unregister.
type Dispatcher struct {
	alias string
	reg   *Registry

	// KV is the backing store Register/Unregister write to. Nil disables
	// bookkeeping entirely (useful for dry-run plan-only callers).
	KV kvstore.Store

	// Sink receives every event each split pipeline yields, split by
	// split in order. Where those events ultimately go (stdout, a socket, a
	// message queue) is a concrete back-end's concern, not this base
	// type's.
	Sink func(*event.Event) error

	// Unify and MaxLayers are forwarded to SplitPipeline.
	Unify     bool
	MaxLayers int

	// Recorder, if set, is notified around each layer/pipeline the
	// dispatcher drives, for post-mortem plan display.
	Recorder *plan.Recorder
}

// New builds a Dispatcher with alias for display/bookkeeping purposes.
// Concrete back-ends typically wrap this constructor in their own
// Factory registered under dispatcher.Registry.
func New(alias string, reg *Registry) *Dispatcher {
	return &Dispatcher{alias: alias, reg: reg}
}

func (d *Dispatcher) Alias() string { return d.alias }

// Run parses are assumed already done by the caller (prog is a fully
// built script.Program): it splits prog's main pipeline, registers a
// Record under pid, drives every split pipeline's output through Sink,
// and unregisters on return, recording Finished or Crashed as
// appropriate.
func (d *Dispatcher) Run(ctx context.Context, pctx *pipeline.Context, prog *script.Program, pid string) error {
	main, ok := prog.Pipelines.Get(script.MainPipelineName)
	if !ok {
		return &perrors.ObjectNotFoundError{Kind: "pipeline", Name: script.MainPipelineName}
	}

	mergeTypes := map[command.Role]bool{command.RoleMerging: true}
	splits := SplitPipeline(main, d.Unify, d.MaxLayers, mergeTypes)

	if d.KV != nil {
		rec := Record{Name: main.Name, Dispatcher: d.alias, Status: StateRunning}
		now := time.Now()
		rec.StartTime = &now
		if err := Register(ctx, d.KV, pid, rec); err != nil {
			return err
		}
	}

	runErr := d.runSplits(ctx, pctx, splits)

	if d.KV != nil {
		status := StateFinished
		if runErr != nil {
			status = StateCrashed
		}
		rec := Record{Name: main.Name, Dispatcher: d.alias, Status: status}
		now := time.Now()
		rec.EndTime = &now
		if err := Register(ctx, d.KV, pid, rec); err != nil && runErr == nil {
			runErr = err
		}
		if err := Unregister(ctx, d.KV, pid); err != nil && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		return &perrors.DispatcherError{Instance: d.alias, Msg: runErr.Error()}
	}
	return nil
}

func (d *Dispatcher) runSplits(ctx context.Context, pctx *pipeline.Context, splits []*pipeline.Pipeline) error {
	total := uint(len(splits))
	if d.Recorder != nil {
		d.Recorder.BeginLayer()
		defer d.Recorder.EndLayer()
	}
	for i, sp := range splits {
		defer sp.Close(ctx)
		sp.SetChunk(uint(i), total)
		if d.Recorder != nil {
			d.Recorder.BeginPipeline(sp.Name, commandNodes(sp))
		}
		for ev := range sp.Run(ctx, pctx, nil) {
			if d.Sink != nil {
				if err := d.Sink(ev); err != nil {
					if d.Recorder != nil {
						d.Recorder.EndPipeline()
					}
					return err
				}
			}
		}
		if d.Recorder != nil {
			d.Recorder.EndPipeline()
		}
	}
	return nil
}

func commandNodes(p *pipeline.Pipeline) []plan.CommandNode {
	var nodes []plan.CommandNode
	for _, m := range p.Metas {
		nodes = append(nodes, toNode(m))
	}
	if p.Generator != nil {
		nodes = append(nodes, toNode(p.Generator))
	}
	for _, proc := range p.Processors {
		if inst, ok := proc.(command.Instance); ok {
			nodes = append(nodes, toNode(inst))
		}
	}
	return nodes
}

func toNode(inst command.Instance) plan.CommandNode {
	d := command.ToDict(inst)
	args, _ := d["args"].([]any)
	kwargs, _ := d["kwargs"].(map[string]any)
	return plan.CommandNode{Alias: inst.Base().Alias, Args: args, Kwargs: kwargs}
}
