package perrors_test

import (
	"errors"
	"testing"

	"github.com/jpclipffel/m42pl-core/pkg/perrors"
)

func TestRenderSnippetMidSource(t *testing.T) {
	src := "| make count=1 | eval x=i | echo"
	got := perrors.RenderSnippet(src, 20)
	if got == "" {
		t.Fatalf("expected a non-empty snippet")
	}
}

func TestRenderSnippetOffsetAtEnd(t *testing.T) {
	src := "| make count=1 |"
	got := perrors.RenderSnippet(src, len(src))
	if got == "" {
		t.Fatalf("expected a non-empty snippet for an offset at end of source")
	}
}

func TestRenderSnippetEmptySource(t *testing.T) {
	if got := perrors.RenderSnippet("", 0); got != "" {
		t.Errorf("RenderSnippet(\"\", 0) = %q, want empty", got)
	}
}

func TestRenderSnippetOffsetOutOfRange(t *testing.T) {
	if got := perrors.RenderSnippet("| make count=1", -1); got != "" {
		t.Errorf("expected empty for a negative offset, got %q", got)
	}
	if got := perrors.RenderSnippet("| make count=1", 999); got != "" {
		t.Errorf("expected empty for an offset past the source, got %q", got)
	}
}

func TestWrapCommandErrorPassesThroughDomainErrors(t *testing.T) {
	domain := &perrors.ObjectNotFoundError{Kind: "command", Name: "nope"}
	got := perrors.WrapCommandError("nope", 1, 1, 0, domain)
	if got != error(domain) {
		t.Errorf("expected WrapCommandError to pass a domain error through unchanged")
	}
}

func TestWrapCommandErrorWrapsPlainErrors(t *testing.T) {
	plain := errors.New("boom")
	got := perrors.WrapCommandError("eval", 2, 3, 10, plain)
	var ce *perrors.CommandError
	if !errors.As(got, &ce) {
		t.Fatalf("expected a *CommandError, got %T", got)
	}
	if ce.Alias != "eval" || ce.Line != 2 || ce.Col != 3 || ce.Offset != 10 {
		t.Errorf("unexpected fields: %+v", ce)
	}
	if !errors.Is(got, plain) {
		t.Errorf("expected the wrapped error to unwrap to the original cause")
	}
}

func TestWrapCommandErrorNil(t *testing.T) {
	if err := perrors.WrapCommandError("x", 0, 0, 0, nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
