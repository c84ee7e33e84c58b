package request

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// WaitGroupConcurrencyLimit is the maximum number of concurrent requests in one WaitGroup.
const WaitGroupConcurrencyLimit = 8

// WaitGroup sends each request as soon as it is passed to Send.
// A failed request does not stop the others, Wait returns all errors.
// Requests may be sent from callbacks of running requests, for example to follow the next page.
//
// Use RunGroup to stop at the first error.
type WaitGroup struct {
	ctx     context.Context
	pending sync.WaitGroup
	sem     *semaphore.Weighted

	mu   sync.Mutex
	errs *multierror.Error
}

func NewWaitGroup(ctx context.Context) *WaitGroup {
	return &WaitGroup{ctx: ctx, sem: semaphore.NewWeighted(WaitGroupConcurrencyLimit)}
}

func (g *WaitGroup) Send(r Sendable) {
	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		g.addError(g.send(r))
	}()
}

// Wait blocks until all requests, including those sent meanwhile, are completed.
// A single error is returned as is, multiple errors are joined by go-multierror.
func (g *WaitGroup) Wait() error {
	g.pending.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.errs != nil && len(g.errs.Errors) == 1 {
		return g.errs.Errors[0]
	}
	return g.errs.ErrorOrNil()
}

func (g *WaitGroup) send(r Sendable) error {
	if err := g.sem.Acquire(g.ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return r.SendOrErr(g.ctx)
}

func (g *WaitGroup) addError(err error) {
	if err == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs = multierror.Append(g.errs, err)
}
