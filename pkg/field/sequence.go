package field

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/event"
)

// Sequence resolves a fixed list of inner fields, one at a time, in
// declaration order. There is no concurrency benefit for the handful of
// literals/paths a script typically packs into a sequence, and reading
// sequentially keeps ordering trivially deterministic.
type Sequence struct {
	unsupported
	Items []Field
}

func NewSequence(items []Field) *Sequence {
	return &Sequence{unsupported: unsupported{kind: "sequence"}, Items: items}
}

func (s *Sequence) Read(ctx context.Context, ev *event.Event, env Env) (any, error) {
	out := make([]any, len(s.Items))
	for i, item := range s.Items {
		v, err := item.Read(ctx, ev, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
