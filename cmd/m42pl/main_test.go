package main

import (
	"strings"
	"testing"

	"github.com/jpclipffel/m42pl-core/pkg/script"
)

func TestBuildRegistryRegistersFixtureCommands(t *testing.T) {
	reg, err := buildRegistry()
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	if _, _, ok := reg.Lookup("make"); !ok {
		t.Fatalf("expected %q to be registered", "make")
	}
	if _, _, ok := reg.Lookup("nope"); ok {
		t.Fatalf("did not expect %q to be registered", "nope")
	}
}

func TestPipelineToDictRendersCommandChain(t *testing.T) {
	reg, err := buildRegistry()
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	prog, err := script.Parse("| make count=2 | eval x=i", reg, "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	main, ok := prog.Pipelines.Get(script.MainPipelineName)
	if !ok {
		t.Fatalf("expected a %q pipeline", script.MainPipelineName)
	}
	dict := pipelineToDict(main)
	if dict["name"] != script.MainPipelineName {
		t.Errorf("name = %v, want %q", dict["name"], script.MainPipelineName)
	}
	commands, ok := dict["commands"].([]map[string]any)
	if !ok || len(commands) != 2 {
		t.Fatalf("commands = %#v, want 2 entries", dict["commands"])
	}
	if commands[0]["alias"] != "make" || commands[1]["alias"] != "eval" {
		t.Errorf("unexpected command order: %#v", commands)
	}
}

func TestRenderParseErrAppendsSnippet(t *testing.T) {
	reg, err := buildRegistry()
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	src := "| make count=1 |"
	_, err = script.Parse(src, reg, "test")
	if err == nil {
		t.Fatalf("expected a parse error for a trailing '|' with no command name")
	}
	wrapped := renderParseErr(src, err)
	if !strings.Contains(wrapped.Error(), "near:") {
		t.Errorf("expected a rendered snippet, got: %v", wrapped)
	}
}

func TestRenderErrFormatsShortDesc(t *testing.T) {
	reg, err := buildRegistry()
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	_, err = script.Parse("| make count=1 | nosuchcommand", reg, "test")
	if err == nil {
		t.Fatalf("expected an error for an unregistered command")
	}
	msg := renderErr(err)
	if !strings.HasPrefix(msg, "error: ") {
		t.Errorf("renderErr = %q, want a leading %q", msg, "error: ")
	}
}
