package builtin

import "github.com/jpclipffel/m42pl-core/pkg/command"

// Register adds every fixture command to reg under its script alias.
func Register(reg *command.Registry) error {
	entries := []struct {
		about   command.Descriptor
		factory command.Factory
	}{
		{command.Descriptor{
			Alias:  "make",
			About:  "Generates a fixed number of synthetic events, optionally delayed.",
			Syntax: "make count=<int> [delay=<seconds>]",
		}, NewMake},
		{command.Descriptor{
			Alias:  "eval",
			About:  "Evaluates one or more expressions and assigns each to a field.",
			Syntax: "eval <name>=<expr> [<name>=<expr> ...]",
		}, NewEvalCmd},
		{command.Descriptor{
			Alias:  "buffer",
			About:  "Buffers events into a bounded queue, draining on full/wakeup/end-of-stream.",
			Syntax: "buffer maxsize=<int>",
		}, NewBuffer},
		{command.Descriptor{
			Alias:  "dequeue",
			About:  "Buffers events keyed by signature, replacing and resetting the order of a reused sign.",
			Syntax: "dequeue maxsize=<int>",
		}, NewDequeue},
		{command.Descriptor{
			Alias:  "count",
			About:  "Counts events across the whole stream, emitting one event at end-of-stream.",
			Syntax: "count",
		}, NewCount},
		{command.Descriptor{
			Alias:  "dedup",
			About:  "Drops events whose sign_by value was already seen.",
			Syntax: "dedup sign_by=<field>",
		}, NewDedup},
		{command.Descriptor{
			Alias:  "timeout",
			About:  "Sets the pipeline's generator-await timeout, in seconds.",
			Syntax: "timeout <float>",
		}, NewTimeout},
		{command.Descriptor{
			Alias:  "slow",
			About:  "Sleeps before passing an event through, for exercising wakeup passes.",
			Syntax: "slow <float>",
		}, NewSlow},
		{command.Descriptor{
			Alias:  "echo",
			About:  "Logs and passes an event through unchanged.",
			Syntax: "echo",
		}, NewEcho},
	}
	for _, e := range entries {
		if err := reg.Register(e.about, e.factory); err != nil {
			return err
		}
	}
	return nil
}
