package field

import (
	"context"
	"fmt"

	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
)

// absent is the internal sentinel a variant's Read returns (with a nil
// error) to mean "nothing resolved here, let the descriptor apply its
// default" — distinct from a genuine JSON null, which variants pass
// through as plain Go nil.
type absent struct{}

// Descriptor wraps a variant with the common behaviour every field token
// carries regardless of kind: a default substituted for an absent read,
// an optional accepted-type allowlist a resolved value must satisfy (a
// mismatch is a FieldError, not a silent default substitution), and an
// as_sequence flag that always wraps the resolved value in a list.
type Descriptor struct {
	Variant    Field
	Default    any
	Accepted   []string // empty means unrestricted
	AsSequence bool

	// Source is the token text this descriptor was built from, used only
	// to identify the field in a FieldError.
	Source string
}

func (d *Descriptor) Read(ctx context.Context, ev *event.Event, env Env) (any, error) {
	v, err := d.Variant.Read(ctx, ev, env)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(absent); ok {
		v = d.Default
	} else if len(d.Accepted) > 0 && !acceptedType(v, d.Accepted) {
		return nil, &perrors.FieldError{
			Field: d.Source,
			Msg:   fmt.Sprintf("value of type %s does not satisfy accepted types %v", typeName(v), d.Accepted),
		}
	}
	if d.AsSequence {
		if _, ok := v.([]any); !ok {
			v = []any{v}
		}
	}
	return v, nil
}

func (d *Descriptor) Write(ev *event.Event, value any) error { return d.Variant.Write(ev, value) }

func (d *Descriptor) Delete(ev *event.Event) error { return d.Variant.Delete(ev) }

func acceptedType(v any, accepted []string) bool {
	name := typeName(v)
	for _, a := range accepted {
		if a == name {
			return true
		}
	}
	return false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case []byte:
		return "bytes"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
