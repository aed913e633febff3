// Package event defines M42PL's in-memory record shape: a data map, a meta
// map and a lazily-materialised signature.
package event

import (
	"sync"

	"github.com/google/uuid"
)

// Event is the unit of data flowing through a pipeline.
//
// Data holds user-visible fields; Meta holds engine-internal bookkeeping.
// Both are always non-nil. Equality is by pointer identity, never content.
type Event struct {
	Data map[string]any
	Meta map[string]any

	mu   sync.Mutex
	sign string
}

// New creates an Event from data and meta, defaulting either to an empty
// map when nil.
func New(data, meta map[string]any) *Event {
	if data == nil {
		data = map[string]any{}
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return &Event{Data: data, Meta: meta}
}

// Sign returns the event's signature, assigning a fresh UUIDv4 on first
// call. Once observed, the signature never changes for this event.
func (e *Event) Sign() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sign == "" {
		e.sign = uuid.NewString()
	}
	return e.sign
}

// SetSign forces the event's signature, without going through lazy
// generation. Used by Derive when a caller wants to propagate a sign.
func (e *Event) SetSign(sign string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sign = sign
}

// Clone returns a shallow structural copy of data and meta: a new Event
// whose maps are independent but whose values are not deep-copied past one
// level. Used by buffering commands to snapshot an event before enqueuing.
func (e *Event) Clone() *Event {
	data := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	meta := make(map[string]any, len(e.Meta))
	for k, v := range e.Meta {
		meta[k] = v
	}
	return New(data, meta)
}

// Derive produces a new Event whose maps are base merged with the given
// overlays. A nil overlay leaves the corresponding map untouched (still
// copied from base, not aliased). sign is assigned only when non-empty;
// it is not propagated from base by default.
func Derive(base *Event, dataOverlay, metaOverlay map[string]any, sign string) *Event {
	data := map[string]any{}
	meta := map[string]any{}
	if base != nil {
		for k, v := range base.Data {
			data[k] = v
		}
		for k, v := range base.Meta {
			meta[k] = v
		}
	}
	for k, v := range dataOverlay {
		data[k] = v
	}
	for k, v := range metaOverlay {
		meta[k] = v
	}
	ev := New(data, meta)
	if sign != "" {
		ev.SetSign(sign)
	}
	return ev
}
