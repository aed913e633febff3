package pipeline

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/event"
)

// InfiniteRunner wraps a Pipeline as a reusable sub-pipeline value source
// for field.PipeRef: each Call drives the pipeline against a fresh seed
// and returns the batch of events it produced, without re-running Setup
// or re-entering scopes (Pipeline.Run's own state guards make repeated
// calls cheap).
type InfiniteRunner struct {
	ctx    context.Context
	p      *Pipeline
	pctx   *Context
	seedCh chan *event.Event
	outCh  chan infResult
	done   chan struct{}
}

type infResult struct {
	events []*event.Event
	err    error
}

func NewInfiniteRunner(ctx context.Context, p *Pipeline, pctx *Context) *InfiniteRunner {
	r := &InfiniteRunner{
		ctx:    ctx,
		p:      p,
		pctx:   pctx,
		seedCh: make(chan *event.Event),
		outCh:  make(chan infResult),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *InfiniteRunner) loop() {
	defer close(r.done)
	for seed := range r.seedCh {
		var out []*event.Event
		for ev := range r.p.Run(r.ctx, r.pctx, seed) {
			out = append(out, ev)
		}
		select {
		case r.outCh <- infResult{events: out}:
		case <-r.ctx.Done():
			return
		}
	}
}

// Call sends seed as the pipeline's next seed and waits for the batch of
// events it produces before next suspending.
func (r *InfiniteRunner) Call(seed *event.Event) ([]*event.Event, error) {
	select {
	case r.seedCh <- seed:
	case <-r.ctx.Done():
		return nil, r.ctx.Err()
	}
	select {
	case res := <-r.outCh:
		return res.events, res.err
	case <-r.ctx.Done():
		return nil, r.ctx.Err()
	}
}

// Close stops the runner's goroutine. A closed runner must not be Called
// again.
func (r *InfiniteRunner) Close() {
	close(r.seedCh)
	<-r.done
	r.p.Close(r.ctx)
}
