package field

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/event"
)

// DictPath addresses a value through a dotted sequence of map keys, e.g.
// "user.address.city" -> ["user", "address", "city"].
type DictPath struct {
	Segments []string
}

func NewDictPath(segments []string) *DictPath {
	return &DictPath{Segments: segments}
}

func (d *DictPath) Read(_ context.Context, ev *event.Event, _ Env) (any, error) {
	var cur any = ev.Data
	for _, seg := range d.Segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return absent{}, nil
		}
		v, ok := m[seg]
		if !ok {
			return absent{}, nil
		}
		cur = v
	}
	return cur, nil
}

// Write assigns value at the dotted path, creating any missing
// intermediate maps along the way.
func (d *DictPath) Write(ev *event.Event, value any) error {
	if len(d.Segments) == 0 {
		return nil
	}
	m := ev.Data
	for _, seg := range d.Segments[:len(d.Segments)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[d.Segments[len(d.Segments)-1]] = value
	return nil
}

// Delete removes the value at the dotted path. Missing intermediate maps
// or a missing leaf are not errors: deletion is always best-effort.
func (d *DictPath) Delete(ev *event.Event) error {
	if len(d.Segments) == 0 {
		return nil
	}
	m := ev.Data
	for _, seg := range d.Segments[:len(d.Segments)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			return nil
		}
		m = next
	}
	delete(m, d.Segments[len(d.Segments)-1])
	return nil
}
