package command

import (
	"strconv"
	"strings"

	"github.com/jpclipffel/m42pl-core/pkg/field"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
)

// Grammar is implemented by a command needing a custom per-command
// argument shape instead of the generic arg/kwarg splitting ParseArguments
// performs.
type Grammar interface {
	ParseBody(body string) (args []field.Token, kwargs map[string]field.Token, err error)
}

// ParseArguments splits a command body into positional and keyword
// tokens, honouring nested quotes/brackets so that a space or '=' inside
// a string, eval expression, JSON-path or list is never mistaken for an
// argument boundary.
func ParseArguments(body string) ([]field.Token, map[string]field.Token, error) {
	words, err := splitWords(body)
	if err != nil {
		return nil, nil, err
	}
	var args []field.Token
	kwargs := map[string]field.Token{}
	for _, w := range words {
		name, value, isKwarg := splitKwarg(w)
		tok := classify(value)
		if isKwarg {
			kwargs[name] = tok
		} else {
			args = append(args, tok)
		}
	}
	return args, kwargs, nil
}

// splitWords scans body left to right, splitting on unquoted/unbracketed
// whitespace, tracking nesting depth across '"', '\'', '`', '{'/'}' and
// '['/']' so that a boundary character inside any of those is not treated
// as a separator.
func splitWords(body string) ([]string, error) {
	var words []string
	var cur strings.Builder
	var quote byte
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
			cur.WriteByte(c)
		case '{', '[':
			depth++
			cur.WriteByte(c)
		case '}', ']':
			if depth > 0 {
				depth--
			}
			cur.WriteByte(c)
		case ' ', '\t', '\n', '\r':
			if depth > 0 {
				cur.WriteByte(c)
			} else {
				flush()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, &perrors.ScriptError{Line: -1, Col: -1, Offset: -1, Msg: "unterminated quote in command body"}
	}
	if depth != 0 {
		return nil, &perrors.ScriptError{Line: -1, Col: -1, Offset: -1, Msg: "unbalanced brackets in command body"}
	}
	flush()
	return words, nil
}

// splitKwarg finds a top-level '=' not nested inside quotes/brackets.
func splitKwarg(word string) (name, value string, isKwarg bool) {
	var quote byte
	depth := 0
	for i := 0; i < len(word); i++ {
		c := word[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{', '[':
			depth++
		case '}', ']':
			if depth > 0 {
				depth--
			}
		case '=':
			if depth == 0 && i > 0 {
				return word[:i], word[i+1:], true
			}
		}
	}
	return "", word, false
}

func classify(text string) field.Token {
	if len(text) >= 2 {
		if (text[0] == '"' && text[len(text)-1] == '"') || (text[0] == '\'' && text[len(text)-1] == '\'') {
			return field.Token{Kind: field.KindString, Str: unescape(text[1 : len(text)-1])}
		}
	}
	if text == "true" || text == "false" {
		return field.Token{Kind: field.KindBool, Bool: text == "true"}
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return field.Token{Kind: field.KindInt, Int: i}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return field.Token{Kind: field.KindFloat, Float: f}
	}
	if len(text) >= 2 && text[0] == '[' && text[len(text)-1] == ']' {
		inner := text[1 : len(text)-1]
		parts := splitTopLevel(inner, ',')
		items := make([]field.Token, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			items = append(items, classify(p))
		}
		return field.Token{Kind: field.KindList, List: items}
	}
	return field.Token{Kind: field.KindWord, Str: text}
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	var quote byte
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
			cur.WriteByte(c)
		case '{', '[':
			depth++
			cur.WriteByte(c)
		case '}', ']':
			if depth > 0 {
				depth--
			}
			cur.WriteByte(c)
		default:
			if c == sep && depth == 0 {
				parts = append(parts, cur.String())
				cur.Reset()
				continue
			}
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func unescape(s string) string {
	return strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`).Replace(s)
}
