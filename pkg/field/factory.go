package field

import (
	"fmt"
	"strings"

	"github.com/jpclipffel/m42pl-core/pkg/eval"
)

// TokenKind classifies a field argument token as the script lexer produced
// it, before Factory decides which variant it becomes.
type TokenKind int

const (
	// KindWord is a bare or sigil-prefixed identifier: dispatch inspects
	// its text to decide between DictPath, JSONPath, Eval and PipeRef.
	KindWord TokenKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
)

// Token is the minimal shape script needs to hand a parsed argument to
// Factory, without field importing anything from script.
type Token struct {
	Kind  TokenKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	List  []Token
}

// Option configures the Descriptor wrapping the variant Factory builds.
type Option func(*Descriptor)

func WithDefault(v any) Option     { return func(d *Descriptor) { d.Default = v } }
func WithAccepted(types ...string) Option { return func(d *Descriptor) { d.Accepted = types } }
func WithSequence() Option         { return func(d *Descriptor) { d.AsSequence = true } }

// Factory builds the Field variant matching t's syntax, per the dispatch
// rules: leading quote is handled upstream by the lexer (a KindString
// token becomes Literal); a "{...}" word becomes JSONPath; a "`...`" word
// becomes Eval; a leading '@' word becomes PipeRef; a dotted word becomes
// multi-segment DictPath; a bare word becomes single-segment DictPath; a
// KindList becomes Sequence; KindInt/KindFloat/KindBool become Literal.
func Factory(t Token, opts ...Option) (*Descriptor, error) {
	var variant Field
	switch t.Kind {
	case KindString:
		variant = NewLiteral(t.Str)
	case KindInt:
		variant = NewLiteral(t.Int)
	case KindFloat:
		variant = NewLiteral(t.Float)
	case KindBool:
		variant = NewLiteral(t.Bool)
	case KindList:
		items := make([]Field, len(t.List))
		for i, inner := range t.List {
			f, err := Factory(inner)
			if err != nil {
				return nil, fmt.Errorf("sequence element %d: %w", i, err)
			}
			items[i] = f
		}
		variant = NewSequence(items)
	case KindWord:
		v, err := factoryWord(t.Str)
		if err != nil {
			return nil, err
		}
		variant = v
	default:
		return nil, fmt.Errorf("unknown field token kind %d", t.Kind)
	}

	d := &Descriptor{Variant: variant, Source: tokenSource(t)}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// tokenSource renders t back to the source text it was parsed from, for
// identifying the field in a FieldError.
func tokenSource(t Token) string {
	switch t.Kind {
	case KindString:
		return fmt.Sprintf("%q", t.Str)
	case KindInt:
		return fmt.Sprintf("%d", t.Int)
	case KindFloat:
		return fmt.Sprintf("%g", t.Float)
	case KindBool:
		return fmt.Sprintf("%t", t.Bool)
	case KindList:
		parts := make([]string, len(t.List))
		for i, inner := range t.List {
			parts[i] = tokenSource(inner)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindWord:
		return t.Str
	default:
		return ""
	}
}

func factoryWord(word string) (Field, error) {
	switch {
	case strings.HasPrefix(word, "{") && strings.HasSuffix(word, "}"):
		return NewJSONPath(strings.TrimSuffix(strings.TrimPrefix(word, "{"), "}")), nil
	case strings.HasPrefix(word, "`") && strings.HasSuffix(word, "`"):
		src := strings.TrimSuffix(strings.TrimPrefix(word, "`"), "`")
		compiled, err := eval.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("compiling eval field %q: %w", word, err)
		}
		return NewEval(compiled, nil), nil
	case strings.HasPrefix(word, "@"):
		return NewPipeRef(strings.TrimPrefix(word, "@")), nil
	case strings.Contains(word, "."):
		return NewDictPath(strings.Split(word, ".")), nil
	default:
		return NewDictPath([]string{word}), nil
	}
}
