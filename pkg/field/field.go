// Package field implements M42PL's polymorphic field descriptors: the
// read/write/delete contract command arguments use to address a value on
// an event, independent of whether that value lives in a dotted map path,
// a JSON-path match, a compiled expression, a literal, or a sub-pipeline.
package field

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
)

// Field is the contract every variant satisfies.
type Field interface {
	// Read resolves the field's value against ev, consulting env when the
	// variant needs to drive a sub-pipeline (PipeRef).
	Read(ctx context.Context, ev *event.Event, env Env) (any, error)
	// Write assigns value onto ev. Variants that cannot be assigned to
	// return ErrUnsupportedFieldOp.
	Write(ev *event.Event, value any) error
	// Delete removes the field's value from ev. Variants that cannot be
	// deleted return ErrUnsupportedFieldOp.
	Delete(ev *event.Event) error
}

// Env is the minimal surface field needs from a running pipeline context:
// driving a named sub-pipeline to completion for a PipeRef read. Defined
// here (rather than importing pipeline.Context directly) so pipeline can
// import field without field importing pipeline back.
type Env interface {
	RunPipeline(ctx context.Context, name string, seed *event.Event) ([]*event.Event, error)
}

// unsupported is embedded by variants that don't support Write/Delete, to
// avoid repeating the same stub across Literal/Eval/PipeRef/Sequence.
type unsupported struct {
	kind string
}

func (u unsupported) Write(*event.Event, any) error {
	return &perrors.ErrUnsupportedFieldOp{Field: u.kind, Op: "write"}
}

func (u unsupported) Delete(*event.Event) error {
	return &perrors.ErrUnsupportedFieldOp{Field: u.kind, Op: "delete"}
}
