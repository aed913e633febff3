package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
)

// EventSeq is the per-event stream a Processor or the scheduler produces.
type EventSeq = iter.Seq[*event.Event]

// Processor is implemented by every RoleStreaming/RoleBuffering/RoleMerging
// command: Call transforms one input event (or nil, on a wakeup/drain
// pass) into zero or more output events. Remain reports how many more
// events this processor still expects to emit once the overall stream
// ends (e.g. a Buffering command's queued backlog), used to compute the
// `remain` argument threaded through runCommands.
type Processor interface {
	Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) EventSeq
	Remain() int
}

// GeneratorSource is the live handle a Generator.Start returns: Next
// blocks until an event is ready, ctx is cancelled, or the generator is
// exhausted (done=true, err=nil).
type GeneratorSource interface {
	Next(ctx context.Context) (ev *event.Event, done bool, err error)
}

// Generator is implemented by the single RoleGenerating command a
// pipeline may carry.
type Generator interface {
	Start(ctx context.Context, seed *event.Event) GeneratorSource
}

// RunState is a pipeline's lifecycle stage, exposed for tests as pure
// observability — it plays no part in production control flow, which is
// driven entirely by Run's own local state.
type RunState int

const (
	StateNew RunState = iota
	StateBuilt
	StateSetUp
	StateEntered
	StateRunning
	StateDrained
	StateExited
)

func (s RunState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateBuilt:
		return "built"
	case StateSetUp:
		return "set_up"
	case StateEntered:
		return "entered"
	case StateRunning:
		return "running"
	case StateDrained:
		return "drained"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

func (p *Pipeline) State() RunState      { return p.state }
func (p *Pipeline) StateLog() []RunState { return append([]RunState{}, p.stateLog...) }

func (p *Pipeline) setState(s RunState) {
	p.state = s
	p.stateLog = append(p.stateLog, s)
}

// runCommands is the direct translation of the original's recursive
// `_run_commands`: the head command's Call is driven for the current
// event, and every event it yields is threaded through the rest of the
// chain recursively. After head's sequence is exhausted and ending is
// true, one final recursion runs with ev=nil so buffering stages observe
// end-of-stream.
func runCommands(ctx context.Context, env field.Env, cmds []Processor, ev *event.Event, ending bool, remain int) EventSeq {
	return func(yield func(*event.Event) bool) {
		if len(cmds) == 0 {
			if ev != nil {
				yield(ev)
			}
			return
		}
		head, tail := cmds[0], cmds[1:]
		for e := range head.Call(ctx, ev, env, ending, remain) {
			for out := range runCommands(ctx, env, tail, e, ending, remain+head.Remain()) {
				if !yield(out) {
					return
				}
			}
		}
		if ending {
			for out := range runCommands(ctx, env, tail, nil, true, remain+head.Remain()) {
				if !yield(out) {
					return
				}
			}
		}
	}
}

// Run drives the pipeline for one seed event, returning every event the
// last processor yields. Setup and scope entry happen once per Pipeline
// (guarded internally) even across repeated calls with different seeds —
// the mechanism an InfiniteRunner relies on for "per-invocation one-shot
// execution without re-entering setup".
func (p *Pipeline) Run(ctx context.Context, pctx *Context, seed *event.Event) EventSeq {
	return func(yield func(*event.Event) bool) {
		if err := p.setup(ctx, seed, pctx); err != nil {
			return
		}
		if err := p.enter(ctx); err != nil {
			return
		}
		if !p.metasRun {
			p.metasRun = true
			for _, m := range p.Metas {
				if proc, ok := m.(Processor); ok {
					for range proc.Call(ctx, seed, pctx, false, 0) {
						// Metas act by side effect (e.g. registering
						// sub-pipelines on pctx); their output, if any,
						// is not part of the pipeline's stream.
					}
				}
			}
		}

		if p.Generator == nil {
			return
		}
		gen, ok := p.Generator.(Generator)
		if !ok {
			return
		}
		p.setState(StateRunning)
		src := gen.Start(ctx, seed)

		resultCh := make(chan genResult, 1)
		launch := func() {
			go func() {
				ev, done, err := src.Next(ctx)
				resultCh <- genResult{ev: ev, done: done, err: err}
			}()
		}
		launch()

		var timer *time.Timer
		if p.Timeout > 0 {
			timer = time.NewTimer(p.Timeout)
			defer timer.Stop()
		}

		for {
			var timerC <-chan time.Time
			if timer != nil {
				timerC = timer.C
			}
			select {
			case <-ctx.Done():
				// Soft cancellation: queued events still flush through a
				// drain pass before the sequence ends.
				for out := range runCommands(ctx, pctx, p.Processors, nil, true, 0) {
					if !yield(out) {
						return
					}
				}
				return
			case res := <-resultCh:
				if res.err != nil {
					return
				}
				if res.done {
					p.setState(StateDrained)
					for out := range runCommands(ctx, pctx, p.Processors, nil, true, 0) {
						if !yield(out) {
							return
						}
					}
					return
				}
				for out := range runCommands(ctx, pctx, p.Processors, res.ev, false, 0) {
					if !yield(out) {
						return
					}
				}
				launch()
				if timer != nil {
					timer.Reset(p.Timeout)
				}
			case <-timerC:
				for range runCommands(ctx, pctx, p.Processors, nil, false, 0) {
					// Wakeup pass: buffering stages may flush on a
					// timeout even without a new event arriving.
				}
				timer.Reset(p.Timeout)
				// Keep waiting on the same in-flight goroutine result —
				// never abandon or re-issue the call.
			}
		}
	}
}

type genResult struct {
	ev   *event.Event
	done bool
	err  error
}

func (p *Pipeline) setup(ctx context.Context, seed *event.Event, env field.Env) error {
	p.setupOnce.Do(func() {
		all := p.allInstances()
		for _, inst := range all {
			base := inst.Base()
			base.Logger = slog.Default().With("pipeline", p.Name, "command", base.Alias)
			if s, ok := inst.(command.Setuper); ok {
				if err := s.Setup(ctx, seed, env); err != nil {
					p.setupErr = perrors.WrapCommandError(base.Alias, base.SrcLine, base.SrcCol, base.SrcOffset, err)
					return
				}
			}
			// Read after Setup, not at Build time: a TimeoutHint's
			// duration is typically resolved from its own arguments
			// inside Setup and is zero-valued before that runs.
			if th, ok := inst.(command.TimeoutHint); ok {
				p.Timeout = th.Timeout()
			}
		}
		p.setState(StateSetUp)
	})
	return p.setupErr
}

func (p *Pipeline) enter(ctx context.Context) error {
	if p.entered {
		return p.enterErr
	}
	p.entered = true
	all := p.allInstances()
	entered := make([]command.Instance, 0, len(all))
	for _, inst := range all {
		if s, ok := inst.(command.Scoped); ok {
			if err := s.Enter(ctx); err != nil {
				p.enterErr = fmt.Errorf("entering command %q: %w", inst.Base().Alias, err)
				break
			}
		}
		entered = append(entered, inst)
	}
	p.entered2Exit = entered
	p.setState(StateEntered)
	return p.enterErr
}

// Close exits every entered command's scope in reverse order, regardless
// of outcome.
func (p *Pipeline) Close(ctx context.Context) {
	for i := len(p.entered2Exit) - 1; i >= 0; i-- {
		if s, ok := p.entered2Exit[i].(command.Scoped); ok {
			_ = s.Exit(ctx)
		}
	}
	p.setState(StateExited)
}

func (p *Pipeline) allInstances() []command.Instance {
	all := make([]command.Instance, 0, len(p.Metas)+len(p.Processors)+1)
	all = append(all, p.Metas...)
	if p.Generator != nil {
		all = append(all, p.Generator)
	}
	for _, proc := range p.Processors {
		if inst, ok := proc.(command.Instance); ok {
			all = append(all, inst)
		}
	}
	return all
}
