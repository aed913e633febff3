// Package kvstore defines the key/value store contract a dispatcher uses
// to record pipeline run state, independent of any particular backing
// store.
package kvstore

import (
	"context"
	"iter"
)

// Store is the contract every backing store implements: read/write/delete
// by key, prefix iteration, and scoped enter/exit acquisition around a
// logical session.
type Store interface {
	Read(ctx context.Context, key string, def any) (any, error)
	Write(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Items(ctx context.Context, prefix string) iter.Seq2[string, any]
	Enter(ctx context.Context) error
	Exit(ctx context.Context) error
}
