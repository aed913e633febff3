package command_test

import (
	"testing"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/field"
)

type fakeCommand struct {
	command.Command
}

func (c *fakeCommand) Base() *command.Command { return &c.Command }

func newFakeRegistry() *command.Registry {
	reg := command.NewRegistry(nil)
	reg.Register(command.Descriptor{Alias: "fake", About: "test fixture"}, func() command.Instance {
		return &fakeCommand{Command: command.Command{Role: command.RoleStreaming}}
	})
	return reg
}

func TestRegisterRejectsInvalidAlias(t *testing.T) {
	reg := command.NewRegistry(nil)
	err := reg.Register(command.Descriptor{Alias: "bad alias"}, func() command.Instance { return &fakeCommand{} })
	if err == nil {
		t.Fatalf("expected an error for an alias containing a space")
	}
}

func TestFromScriptParsesArgsAndKwargs(t *testing.T) {
	reg := newFakeRegistry()
	inst, err := command.FromScript(reg, "fake", `first second=3 third="a b"`, 1, 1, 0, "test")
	if err != nil {
		t.Fatalf("FromScript failed: %v", err)
	}
	base := inst.Base()
	if len(base.Args) != 1 {
		t.Fatalf("got %d positional args, want 1", len(base.Args))
	}
	if _, ok := base.Kwargs["second"]; !ok {
		t.Fatalf("expected kwarg %q", "second")
	}
	if _, ok := base.Kwargs["third"]; !ok {
		t.Fatalf("expected kwarg %q", "third")
	}
}

func TestFromScriptUnknownAliasFails(t *testing.T) {
	reg := newFakeRegistry()
	if _, err := command.FromScript(reg, "nope", "", 1, 1, 0, "test"); err == nil {
		t.Fatalf("expected an error for an unregistered alias")
	}
}

func TestToDictFromDictRoundTrip(t *testing.T) {
	reg := newFakeRegistry()
	inst, err := command.FromScript(reg, "fake", "x=1", 1, 1, 0, "test")
	if err != nil {
		t.Fatalf("FromScript failed: %v", err)
	}
	d := command.ToDict(inst)
	rebuilt, err := command.FromDict(reg, d)
	if err != nil {
		t.Fatalf("FromDict failed: %v", err)
	}
	if rebuilt.Base().Alias != "fake" {
		t.Fatalf("got alias %q, want fake", rebuilt.Base().Alias)
	}
}

func TestParseArgumentsRespectsNestedBrackets(t *testing.T) {
	args, kwargs, err := command.ParseArguments("a={b.c} d=`1 + 2`")
	if err != nil {
		t.Fatalf("ParseArguments failed: %v", err)
	}
	if len(args) != 0 {
		t.Fatalf("got %d positional args, want 0", len(args))
	}
	aTok, ok := kwargs["a"]
	if !ok || aTok.Kind != field.KindWord || aTok.Str != "{b.c}" {
		t.Fatalf("got %+v, want the untouched {b.c} word token", aTok)
	}
	dTok, ok := kwargs["d"]
	if !ok || dTok.Str != "`1 + 2`" {
		t.Fatalf("got %+v, want the untouched `1 + 2` word token", dTok)
	}
}
