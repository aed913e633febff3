package command

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// Factory builds a fresh, zero-configured command instance.
type Factory func() Instance

type registryEntry struct {
	about   Descriptor
	factory Factory
}

// Registry is the alias table mapping a script command name to the
// Factory and Descriptor used to build and document it.
type Registry struct {
	entries map[string]registryEntry
	log     *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{entries: map[string]registryEntry{}, log: log}
}

// Register adds alias -> factory. A duplicate alias overwrites the
// previous entry and is logged at Warn rather than treated as an error,
// matching the ambient logging convention used across this module.
func (r *Registry) Register(about Descriptor, factory Factory) error {
	if !aliasPattern.MatchString(about.Alias) {
		return fmt.Errorf("invalid command alias %q: must match %s", about.Alias, aliasPattern.String())
	}
	if _, exists := r.entries[about.Alias]; exists {
		r.log.Warn("command alias overwritten", "alias", about.Alias)
	}
	r.entries[about.Alias] = registryEntry{about: about, factory: factory}
	return nil
}

// Lookup returns the Factory and Descriptor registered under alias.
func (r *Registry) Lookup(alias string) (Factory, Descriptor, bool) {
	e, ok := r.entries[alias]
	if !ok {
		return nil, Descriptor{}, false
	}
	return e.factory, e.about, true
}

// Aliases returns every registered alias, for introspection tooling.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.entries))
	for a := range r.entries {
		out = append(out, a)
	}
	return out
}

// FromScript looks up alias, builds a fresh instance, and parses body
// into that instance's arguments — via the instance's own Grammar if it
// implements one, otherwise via the generic ParseArguments.
func FromScript(reg *Registry, alias, body string, srcLine, srcCol, srcOffset int, srcName string) (Instance, error) {
	factory, _, ok := reg.Lookup(alias)
	if !ok {
		return nil, &perrors.ObjectNotFoundError{Kind: "command", Name: alias}
	}
	inst := factory()
	base := inst.Base()
	base.Alias = alias
	base.SrcLine, base.SrcCol, base.SrcOffset, base.SrcName = srcLine, srcCol, srcOffset, srcName

	var args []field.Token
	var kwargs map[string]field.Token
	var err error
	if g, ok := inst.(Grammar); ok {
		args, kwargs, err = g.ParseBody(body)
	} else {
		args, kwargs, err = ParseArguments(body)
	}
	if err != nil {
		return nil, perrors.WrapCommandError(alias, srcLine, srcCol, srcOffset, err)
	}

	base.RawArgs = args
	base.RawKwargs = kwargs
	base.Args = make([]*field.Descriptor, len(args))
	for i, t := range args {
		d, err := field.Factory(t)
		if err != nil {
			return nil, perrors.WrapCommandError(alias, srcLine, srcCol, srcOffset, err)
		}
		base.Args[i] = d
	}
	base.Kwargs = make(map[string]*field.Descriptor, len(kwargs))
	for k, t := range kwargs {
		d, err := field.Factory(t)
		if err != nil {
			return nil, perrors.WrapCommandError(alias, srcLine, srcCol, srcOffset, err)
		}
		base.Kwargs[k] = d
	}
	return inst, nil
}

// ToDict serializes inst's alias and raw (unresolved) arguments, skipping
// any constructor side effects.
func ToDict(inst Instance) map[string]any {
	base := inst.Base()
	args := make([]any, len(base.RawArgs))
	for i, t := range base.RawArgs {
		args[i] = tokenToAny(t)
	}
	kwargs := make(map[string]any, len(base.RawKwargs))
	for k, t := range base.RawKwargs {
		kwargs[k] = tokenToAny(t)
	}
	return map[string]any{"alias": base.Alias, "args": args, "kwargs": kwargs}
}

// FromDict reconstructs an instance from a ToDict-shaped map without
// invoking the factory's constructor logic beyond allocating the
// zero-value instance.
func FromDict(reg *Registry, d map[string]any) (Instance, error) {
	alias, _ := d["alias"].(string)
	factory, _, ok := reg.Lookup(alias)
	if !ok {
		return nil, &perrors.ObjectNotFoundError{Kind: "command", Name: alias}
	}
	inst := factory()
	base := inst.Base()
	base.Alias = alias

	if rawArgs, ok := d["args"].([]any); ok {
		base.RawArgs = make([]field.Token, len(rawArgs))
		base.Args = make([]*field.Descriptor, len(rawArgs))
		for i, a := range rawArgs {
			tok := anyToToken(a)
			base.RawArgs[i] = tok
			fd, err := field.Factory(tok)
			if err != nil {
				return nil, err
			}
			base.Args[i] = fd
		}
	}
	if rawKwargs, ok := d["kwargs"].(map[string]any); ok {
		base.RawKwargs = make(map[string]field.Token, len(rawKwargs))
		base.Kwargs = make(map[string]*field.Descriptor, len(rawKwargs))
		for k, a := range rawKwargs {
			tok := anyToToken(a)
			base.RawKwargs[k] = tok
			fd, err := field.Factory(tok)
			if err != nil {
				return nil, err
			}
			base.Kwargs[k] = fd
		}
	}
	return inst, nil
}

func tokenToAny(t field.Token) any {
	switch t.Kind {
	case field.KindString:
		return t.Str
	case field.KindInt:
		return t.Int
	case field.KindFloat:
		return t.Float
	case field.KindBool:
		return t.Bool
	case field.KindList:
		out := make([]any, len(t.List))
		for i, inner := range t.List {
			out[i] = tokenToAny(inner)
		}
		return out
	default:
		return t.Str
	}
}

func anyToToken(v any) field.Token {
	switch x := v.(type) {
	case string:
		return field.Token{Kind: field.KindWord, Str: x}
	case int64:
		return field.Token{Kind: field.KindInt, Int: x}
	case float64:
		return field.Token{Kind: field.KindFloat, Float: x}
	case bool:
		return field.Token{Kind: field.KindBool, Bool: x}
	case []any:
		items := make([]field.Token, len(x))
		for i, inner := range x {
			items[i] = anyToToken(inner)
		}
		return field.Token{Kind: field.KindList, List: items}
	default:
		return field.Token{Kind: field.KindWord, Str: fmt.Sprintf("%v", v)}
	}
}
