package script

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

var nameChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_.-"

type parser struct {
	src    string
	pos    int
	srcName string
	reg    *command.Registry
	out    *pipeline.OrderedPipelines
}

// parseBlock parses a run of `| NAME body?` commands starting at p.pos,
// stopping (without consuming) at ']' or end of input. A '[' encountered
// inside a command's body starts a nested block, parsed recursively into
// its own Pipeline and registered under a freshly generated uuid key; the
// enclosing body receives the literal token "@<uuid>" in its place.
func (p *parser) parseBlock() ([]command.Instance, error) {
	var cmds []command.Instance
	for {
		p.skipWS()
		if p.pos >= len(p.src) || p.src[p.pos] == ']' {
			return cmds, nil
		}
		if p.src[p.pos] != '|' {
			return nil, p.errf("expected '|' to start a command")
		}
		startOffset := p.pos
		p.pos++
		p.skipWS()
		alias := p.readName()
		if alias == "" {
			return nil, p.errf("expected a command name after '|'")
		}
		body, err := p.readBody()
		if err != nil {
			return nil, err
		}
		line, col := lineCol(p.src, startOffset)
		inst, err := command.FromScript(p.reg, alias, body, line, col, startOffset, p.srcName)
		if err != nil {
			return nil, &perrors.ScriptError{Line: line, Col: col, Offset: startOffset, Msg: err.Error()}
		}
		cmds = append(cmds, inst)
	}
}

// readBody scans the command's argument text up to (not including) the
// next top-level '|' or ']', tracking quote/eval/jsonpath nesting so that
// those characters inside a literal are never mistaken for a boundary. A
// top-level '[' recurses into parseBlock for a sub-pipeline, which is
// registered and substituted by its "@<uuid>" reference.
func (p *parser) readBody() (string, error) {
	var b strings.Builder
	var quote byte
	depth := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			p.pos++
			continue
		}
		switch {
		case c == '"' || c == '\'' || c == '`':
			quote = c
			b.WriteByte(c)
			p.pos++
		case c == '{':
			depth++
			b.WriteByte(c)
			p.pos++
		case c == '}':
			if depth > 0 {
				depth--
			}
			b.WriteByte(c)
			p.pos++
		case depth > 0:
			b.WriteByte(c)
			p.pos++
		case c == '|':
			return b.String(), nil
		case c == ']':
			return b.String(), nil
		case c == '[':
			p.pos++
			sub, err := p.parseBlock()
			if err != nil {
				return "", err
			}
			if p.pos >= len(p.src) || p.src[p.pos] != ']' {
				return "", p.errf("unterminated '[' block")
			}
			p.pos++
			key := uuid.NewString()
			subPipeline, err := pipeline.Build(key, sub)
			if err != nil {
				return "", err
			}
			p.out.Set(key, subPipeline)
			b.WriteString("@")
			b.WriteString(key)
			b.WriteString(" ")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	if quote != 0 {
		return "", p.errf("unterminated quote in command body")
	}
	return b.String(), nil
}

func (p *parser) readName() string {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte(nameChars, p.src[p.pos]) >= 0 {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipWS() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		break
	}
}

func (p *parser) errf(msg string) error {
	line, col := lineCol(p.src, p.pos)
	return &perrors.ScriptError{Line: line, Col: col, Offset: p.pos, Msg: msg}
}

func lineCol(src string, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
