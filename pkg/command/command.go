package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
)

// Chunk identifies a command's position when a pipeline has been split
// into layers by a dispatcher, e.g. for progress reporting.
type Chunk struct {
	Index, Total uint
}

func (c Chunk) First() bool { return c.Index == 0 }
func (c Chunk) Last() bool  { return c.Total == 0 || c.Index == c.Total-1 }

// Command carries the bookkeeping every concrete command shares: its
// source alias and location, its resolved arguments, its role, and its
// chunk position once split by a dispatcher.
type Command struct {
	Alias  string
	Args   []*field.Descriptor
	Kwargs map[string]*field.Descriptor
	Role   Role

	// RawArgs/RawKwargs preserve the unresolved tokens parsed from the
	// command's source body, so ToDict/FromDict can round-trip a command
	// without re-invoking field.Factory's side effects (notably
	// eval.Compile).
	RawArgs   []field.Token
	RawKwargs map[string]field.Token

	SrcLine, SrcCol, SrcOffset int
	SrcName                    string

	Chunk Chunk

	// Logger is attached once by the pipeline runtime during setup, scoped
	// to this command's alias.
	Logger *slog.Logger
}

// SetChunk assigns this command's chunk position. Concrete commands that
// embed Command inherit it; the few that need to react to a chunk change
// override it alongside an embedded call to this one.
func (c *Command) SetChunk(index, total uint) {
	c.Chunk = Chunk{Index: index, Total: total}
}

// Instance is implemented by every concrete command value. Additional
// optional capabilities (Generator and Processor in package pipeline;
// Setuper, Scoped, TimeoutHint and Multi below) are detected with type assertions at build/run time,
// matching the teacher's pattern of small composable capability
// interfaces rather than one large one.
type Instance interface {
	Base() *Command
}

// Setuper is implemented by commands needing one-time setup before a
// pipeline's first event, e.g. allocating a compiled expression or an
// external handle.
type Setuper interface {
	Setup(ctx context.Context, seed *event.Event, env any) error
}

// Scoped is implemented by commands needing deterministic
// enter/exit-style resource acquisition around a pipeline run.
type Scoped interface {
	Enter(ctx context.Context) error
	Exit(ctx context.Context) error
}

// TimeoutHint is implemented by a command that wants to set the
// pipeline's generator-await timeout (e.g. a `timeout` fixture command
// placed mid-chain). Read once per instance right after its own Setup
// runs, so a duration resolved from the command's own arguments is
// already populated by the time it is read.
type TimeoutHint interface {
	Timeout() time.Duration
}

// Multi is implemented by a Factory result that fans out into several
// command instances at build time, e.g. a macro command expanding into a
// short fixed sequence.
type Multi interface {
	Instances() []Instance
}

// Descriptor documents a command for the registry: its about text and
// its textual syntax, shown by introspection tooling (the CLI's `grammar`
// subcommand).
type Descriptor struct {
	Alias  string
	About  string
	Syntax string
}
