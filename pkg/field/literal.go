package field

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/event"
)

// Literal resolves to a fixed value carried at parse time, e.g. a quoted
// string or a bare number/bool token.
type Literal struct {
	unsupported
	Value any
}

func NewLiteral(v any) *Literal {
	return &Literal{unsupported: unsupported{kind: "literal"}, Value: v}
}

func (l *Literal) Read(context.Context, *event.Event, Env) (any, error) {
	return l.Value, nil
}
