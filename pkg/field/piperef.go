package field

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/event"
)

// PipeRef addresses a value produced by driving a named sub-pipeline with
// the current event as its seed and collapsing its output events.
type PipeRef struct {
	unsupported
	Name string
}

func NewPipeRef(name string) *PipeRef {
	return &PipeRef{unsupported: unsupported{kind: "piperef"}, Name: name}
}

// Read drives the sub-pipeline and collapses its output per the rule: 0
// events -> absent (so the descriptor substitutes Default); 1 event with
// exactly 1 data field -> that field's scalar value; 1 event with N fields
// -> its Data map; N events -> a slice of their Data maps.
func (p *PipeRef) Read(ctx context.Context, ev *event.Event, env Env) (any, error) {
	out, err := env.RunPipeline(ctx, p.Name, ev)
	if err != nil {
		return nil, err
	}
	switch len(out) {
	case 0:
		return absent{}, nil
	case 1:
		if len(out[0].Data) == 1 {
			for _, v := range out[0].Data {
				return v, nil
			}
		}
		return out[0].Data, nil
	default:
		datas := make([]any, len(out))
		for i, e := range out {
			datas[i] = e.Data
		}
		return datas, nil
	}
}
