package request

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// RunGroupConcurrencyLimit is the maximum number of concurrent requests in one RunGroup.
const RunGroupConcurrencyLimit = 32

// RunGroup collects requests by Add and sends them once RunAndWait is called.
// The first error cancels the context of the remaining requests.
//
// Use WaitGroup to send immediately or to collect all errors.
type RunGroup struct {
	ctx     context.Context
	group   *errgroup.Group
	sem     *semaphore.Weighted
	started chan struct{}
}

func NewRunGroup(ctx context.Context) *RunGroup {
	group, ctx := errgroup.WithContext(ctx)
	return &RunGroup{
		ctx:     ctx,
		group:   group,
		sem:     semaphore.NewWeighted(RunGroupConcurrencyLimit),
		started: make(chan struct{}),
	}
}

// Add schedules the request. It may be called from a callback of a running request.
func (g *RunGroup) Add(r Sendable) {
	g.group.Go(func() error {
		<-g.started
		if err := g.sem.Acquire(g.ctx, 1); err != nil {
			return err
		}
		defer g.sem.Release(1)
		return r.SendOrErr(g.ctx)
	})
}

// RunAndWait sends all requests and returns the first error.
func (g *RunGroup) RunAndWait() error {
	close(g.started)
	return g.group.Wait()
}
