// Package builtin implements the minimal, testable command set the
// runtime's own tests exercise against: one generator, a handful of
// streaming/buffering processors, and two fixture commands (timeout,
// slow) purpose-built to drive the generator-await wakeup pass. It is
// not a concrete command library — it exists only to make the
// runtime's own behaviours runnable and testable in this repository.
package builtin

import (
	"context"
	"strconv"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/field"
)

// readKwarg resolves base.Kwargs[name] against ev/env, falling back to
// def when the kwarg wasn't given at all.
func readKwarg(ctx context.Context, base *command.Command, ev *event.Event, env any, name string, def any) (any, error) {
	d, ok := base.Kwargs[name]
	if !ok {
		return def, nil
	}
	fenv, _ := env.(field.Env)
	return d.Read(ctx, ev, fenv)
}

// readPositional resolves base.Args[idx] against ev/env, falling back to
// def when fewer than idx+1 positional arguments were given.
func readPositional(ctx context.Context, base *command.Command, ev *event.Event, env any, idx int, def any) (any, error) {
	if idx >= len(base.Args) {
		return def, nil
	}
	fenv, _ := env.(field.Env)
	return base.Args[idx].Read(ctx, ev, fenv)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
