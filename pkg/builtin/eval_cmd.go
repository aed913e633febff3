package builtin

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/eval"
	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// EvalCmd assigns each kwarg's resolved value onto the event under the
// kwarg's own name, e.g. `eval x=\`field.i * 2\`` sets ev.Data["x"].
//
// Unlike a plain field read (where an Eval field's runtime error is
// absorbed into its default), an assignment must surface the failure:
// evalAssign bypasses the field.Descriptor wrapping for *field.Eval
// variants and calls the compiled expression directly so the error
// propagates here. Processor.Call has no error return, so the failure
// is logged and that one field is left unset rather than aborting the
// whole pipeline.
type EvalCmd struct {
	command.Command
}

func NewEvalCmd() command.Instance {
	return &EvalCmd{Command: command.Command{Role: command.RoleStreaming}}
}

func (c *EvalCmd) Base() *command.Command { return &c.Command }

func (c *EvalCmd) Call(ctx context.Context, ev *event.Event, env field.Env, ending bool, remain int) pipeline.EventSeq {
	return func(yield func(*event.Event) bool) {
		if ev == nil {
			return
		}
		for name, d := range c.Kwargs {
			v, err := evalAssign(ctx, ev, env, d)
			if err != nil {
				if c.Logger != nil {
					c.Logger.Error("eval assignment failed", "field", name, "error", err)
				}
				continue
			}
			ev.Data[name] = v
		}
		yield(ev)
	}
}

func (c *EvalCmd) Remain() int { return 0 }

func evalAssign(ctx context.Context, ev *event.Event, env field.Env, d *field.Descriptor) (any, error) {
	if ef, ok := d.Variant.(*field.Eval); ok {
		v, err := ef.Compiled.Eval(ev.Data)
		if err != nil {
			return nil, err
		}
		if eval.IsUndefined(v) {
			return ef.Default, nil
		}
		return v, nil
	}
	return d.Read(ctx, ev, env)
}
