package field

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/eval"
)

// Eval addresses a value computed from a backtick-quoted expression,
// compiled once at construction and re-evaluated against the event's data
// on every read.
type Eval struct {
	unsupported
	Compiled *eval.Expr
	Default  any
}

func NewEval(compiled *eval.Expr, def any) *Eval {
	return &Eval{unsupported: unsupported{kind: "eval"}, Compiled: compiled, Default: def}
}

// Read runs the compiled expression against ev.Data. Any runtime failure
// (unknown function, type mismatch, divide-by-zero) is absorbed here and
// replaced by the wrapping Descriptor's Default (reported as absent) —
// propagating it is the concern of the eval builtin command, which
// evaluates expressions outside of a field read.
func (e *Eval) Read(_ context.Context, ev *event.Event, _ Env) (any, error) {
	v, err := e.Compiled.Eval(ev.Data)
	if err != nil {
		return absent{}, nil
	}
	if eval.IsUndefined(v) {
		return absent{}, nil
	}
	return v, nil
}
