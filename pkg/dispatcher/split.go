package dispatcher

import (
	"fmt"

	"github.com/jpclipffel/m42pl-core/pkg/command"
	"github.com/jpclipffel/m42pl-core/pkg/pipeline"
)

// SplitPipeline walks p's processors in order,
// opening a new segment each time it meets a command whose Role is set
// in mergeTypes: the current segment is closed, and a fresh one is
// opened starting with the merging command itself, so every merging
// command begins its own segment. Splitting stops once maxLayers
// segments exist (maxLayers <= 0 means unbounded); anything left over is
// appended, unsplit, to the last segment.
//
// When unify is false, a merging command never folds its followers into
// its own segment: it gets an isolated single-command segment and the
// following commands start yet another one.
//
// The original script's metas and generator always open the first
// segment; a merging command can only appear among p.Processors (see
// pipeline.Build), so segmentation only ever walks that slice.
func SplitPipeline(p *pipeline.Pipeline, unify bool, maxLayers int, mergeTypes map[command.Role]bool) []*pipeline.Pipeline {
	if p == nil {
		return nil
	}

	type segment struct {
		processors []pipeline.Processor
	}

	var segments []segment
	cur := segment{}
	capped := false

	flush := func() {
		segments = append(segments, cur)
		cur = segment{}
	}

	for _, proc := range p.Processors {
		if capped {
			cur.processors = append(cur.processors, proc)
			continue
		}

		inst, isCmd := proc.(command.Instance)
		isMerging := isCmd && mergeTypes[inst.Base().Role]

		if !isMerging {
			cur.processors = append(cur.processors, proc)
			continue
		}

		// maxLayers bounds how many segments may still be opened; once
		// reached, this and every later command joins the current
		// segment unsplit.
		if maxLayers > 0 && len(segments)+1 >= maxLayers {
			capped = true
			cur.processors = append(cur.processors, proc)
			continue
		}

		if len(cur.processors) > 0 {
			flush()
		}
		cur.processors = append(cur.processors, proc)
		if !unify {
			flush()
		}
	}
	if len(cur.processors) > 0 || len(segments) == 0 {
		flush()
	}

	out := make([]*pipeline.Pipeline, 0, len(segments))
	for i, seg := range segments {
		sp := &pipeline.Pipeline{
			Name:       segmentName(p.Name, i),
			Processors: seg.processors,
			Timeout:    p.Timeout,
		}
		if i == 0 {
			sp.Metas = p.Metas
			sp.Generator = p.Generator
		}
		out = append(out, sp)
	}
	return out
}

func segmentName(base string, index int) string {
	if index == 0 {
		return base
	}
	return fmt.Sprintf("%s#%d", base, index)
}
