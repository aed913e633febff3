// Package script implements M42PL's pipeline source language: lexing and
// recursive-descent parsing of a sequence of `| command arg...` stages,
// with `[ ... ]` blocks recursing into their own named sub-pipelines.
package script

import (
	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// MainPipelineName is the key the root pipeline is always registered
// under.
const MainPipelineName = "main"

// Program is a fully parsed script: every pipeline it defines, keyed by
// name ("main" for the root, a generated uuid for each `[ ... ]` block).
type Program struct {
	Pipelines *pipeline.OrderedPipelines
}

// Parse lexes and parses src against reg, returning a Program with every
// pipeline the script defines. Every lex/parse failure is wrapped in
// perrors.ScriptError carrying the originating offset.
func Parse(src string, reg *command.Registry, srcName string) (*Program, error) {
	cleaned := stripComments(src)
	out := pipeline.NewOrderedPipelines()
	p := &parser{src: cleaned, srcName: srcName, reg: reg, out: out}

	cmds, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.pos < len(p.src) {
		line, col := lineCol(p.src, p.pos)
		return nil, &perrors.ScriptError{Line: line, Col: col, Offset: p.pos, Msg: "unexpected ']' with no matching '['"}
	}

	main, err := pipeline.Build(MainPipelineName, cmds)
	if err != nil {
		return nil, err
	}
	out.Set(MainPipelineName, main)
	return &Program{Pipelines: out}, nil
}
