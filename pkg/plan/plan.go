// Package plan records the tree a dispatcher walks while splitting and
// driving a pipeline, for post-mortem and dry-run display.
package plan

import (
	"encoding/json"
	"time"
)

// CommandNode is a single command's contribution to a plan, carrying its
// already-serialized arguments (see command.ToDict).
type CommandNode struct {
	Alias  string         `json:"alias"`
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// PipelineNode records one split pipeline's run window and its commands.
type PipelineNode struct {
	Name        string        `json:"name"`
	Commands    []CommandNode `json:"commands"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// Layer groups the pipelines a dispatcher drove between one BeginLayer
// and EndLayer pair.
type Layer struct {
	Pipelines  []PipelineNode `json:"pipelines"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Plan is the full recorded tree for one dispatcher run.
type Plan struct {
	Layers []Layer `json:"layers"`
}

// ToJSON renders the plan tree. Any further pretty-printing is an
// external collaborator's concern.
func (p *Plan) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Recorder builds a Plan incrementally as a dispatcher walks its split
// pipelines. It is not safe for concurrent use from multiple goroutines
// without external synchronization, matching the single dispatcher
// goroutine that is expected to drive it.
type Recorder struct {
	plan          Plan
	curLayer      *Layer
	curPipeline   *PipelineNode
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// BeginLayer opens a new layer. EndLayer must be called before the next
// BeginLayer.
func (r *Recorder) BeginLayer() {
	r.plan.Layers = append(r.plan.Layers, Layer{StartedAt: time.Now()})
	r.curLayer = &r.plan.Layers[len(r.plan.Layers)-1]
}

func (r *Recorder) EndLayer() {
	if r.curLayer == nil {
		return
	}
	r.curLayer.FinishedAt = time.Now()
	r.curLayer = nil
}

// BeginPipeline opens a pipeline node within the current layer, recording
// its commands up front (their execution window is filled in by
// EndPipeline).
func (r *Recorder) BeginPipeline(name string, commands []CommandNode) {
	if r.curLayer == nil {
		r.BeginLayer()
	}
	r.curLayer.Pipelines = append(r.curLayer.Pipelines, PipelineNode{
		Name:      name,
		Commands:  commands,
		StartedAt: time.Now(),
	})
	r.curPipeline = &r.curLayer.Pipelines[len(r.curLayer.Pipelines)-1]
}

func (r *Recorder) EndPipeline() {
	if r.curPipeline == nil {
		return
	}
	r.curPipeline.FinishedAt = time.Now()
	r.curPipeline = nil
}

// Plan returns the recorded tree so far.
func (r *Recorder) Plan() *Plan {
	return &r.plan
}
