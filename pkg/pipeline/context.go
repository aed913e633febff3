package pipeline

import (
	"context"
	"sync"

	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/kvstore"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
)

// Context is the shared state a script's pipelines run against: the
// insertion-ordered pipeline table and the KV store backing dispatcher
// bookkeeping. It implements field.Env, driving a named sub-pipeline via
// a lazily-created InfiniteRunner the first time that name is referenced
// by a PipeRef read.
type Context struct {
	Pipelines *OrderedPipelines
	KV        kvstore.Store

	mu      sync.Mutex
	runners map[string]*InfiniteRunner
}

func NewContext(pipelines *OrderedPipelines, kv kvstore.Store) *Context {
	return &Context{Pipelines: pipelines, KV: kv, runners: map[string]*InfiniteRunner{}}
}

// AddPipelines registers additional pipelines, rejecting any name already
// present — used by a Meta command to add sub-pipelines it built
// dynamically.
func (c *Context) AddPipelines(m map[string]*Pipeline) error {
	for name := range m {
		if _, exists := c.Pipelines.Get(name); exists {
			return &perrors.ObjectNotFoundError{Kind: "pipeline name collision", Name: name}
		}
	}
	for name, p := range m {
		c.Pipelines.Set(name, p)
	}
	return nil
}

// RunPipeline satisfies field.Env: it drives the named sub-pipeline
// (starting, and thereafter reusing, its InfiniteRunner) with seed, and
// returns the batch of events produced before the sub-pipeline next
// suspends.
func (c *Context) RunPipeline(ctx context.Context, name string, seed *event.Event) ([]*event.Event, error) {
	runner, err := c.runnerFor(ctx, name)
	if err != nil {
		return nil, err
	}
	return runner.Call(seed)
}

func (c *Context) runnerFor(ctx context.Context, name string) (*InfiniteRunner, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.runners[name]; ok {
		return r, nil
	}
	p, ok := c.Pipelines.Get(name)
	if !ok {
		return nil, &perrors.ObjectNotFoundError{Kind: "pipeline", Name: name}
	}
	r := NewInfiniteRunner(ctx, p, c)
	c.runners[name] = r
	return r, nil
}

// Close shuts down every InfiniteRunner this Context lazily started.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.runners {
		r.Close()
	}
	c.runners = map[string]*InfiniteRunner{}
}
