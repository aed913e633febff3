package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/jpclipffel/m42pl-core/pkg/kvstore"
)

// State is a dispatcher run's lifecycle status, as recorded in the KV
// store for external introspection (a status CLI/REPL command, an
// out-of-scope collaborator, would read these back).
type State int

const (
	StateUnknown State = iota
	StateRunning
	StateFinished
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Record is one dispatcher run's bookkeeping entry, keyed by process id
// under the "dispatchers:<pid>" namespace.
type Record struct {
	Name       string
	Dispatcher string
	StartTime  *time.Time
	EndTime    *time.Time
	Status     State
}

func recordKey(pid string) string {
	return "dispatchers:" + pid
}

// Register writes (or overwrites) rec under pid's key.
func Register(ctx context.Context, kv kvstore.Store, pid string, rec Record) error {
	if kv == nil {
		return fmt.Errorf("dispatcher: no KV store configured")
	}
	return kv.Write(ctx, recordKey(pid), rec)
}

// Unregister removes pid's bookkeeping entry.
func Unregister(ctx context.Context, kv kvstore.Store, pid string) error {
	if kv == nil {
		return fmt.Errorf("dispatcher: no KV store configured")
	}
	return kv.Delete(ctx, recordKey(pid))
}
