package service

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/vanshika/graphload/internal/domain"
)

const defaultWorkers = 4

// Pool runs record imports on a bounded set of workers. Results land in a
// slot array addressed by input index, so completion order never leaks into
// the output.
type Pool struct {
	workers int
	limiter *rate.Limiter
}

// NewPool creates a pool with the provided concurrency. A positive
// ratePerSecond paces dispatch of new records.
func NewPool(workers int, ratePerSecond float64) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	p := &Pool{workers: workers}
	if ratePerSecond > 0 {
		burst := int(ratePerSecond)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	return p
}

// Workers returns the concurrency degree.
func (p *Pool) Workers() int {
	return p.workers
}

// Run dispatches every index in indices to fn and returns size slots, one per
// input record. Slots that were never dispatched keep StatusNotAttempted.
//
// observe, if set, sees each result as it completes (calls are serialised);
// returning true stops further dispatch. Cancelling ctx also stops dispatch.
// Either way, records already handed to a worker run to completion.
func (p *Pool) Run(ctx context.Context, indices []int, size int, fn func(idx int) domain.ElementResult, observe func(domain.ElementResult) bool) []domain.ElementResult {
	results := make([]domain.ElementResult, size)
	for i := range results {
		results[i].Index = i
	}
	if len(indices) == 0 {
		return results
	}

	dispatchCtx, halt := context.WithCancel(ctx)
	defer halt()

	indexCh := make(chan int)
	var (
		wg        sync.WaitGroup
		observeMu sync.Mutex
	)

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			res := fn(idx)
			res.Index = idx
			results[idx] = res
			if observe == nil {
				continue
			}
			observeMu.Lock()
			stop := observe(res)
			observeMu.Unlock()
			if stop {
				halt()
			}
		}
	}

	workers := p.workers
	if workers > len(indices) {
		workers = len(indices)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for _, idx := range indices {
		if p.limiter != nil {
			if err := p.limiter.Wait(dispatchCtx); err != nil {
				break Loop
			}
		}
		// A halt may race with a ready worker; check it first so no new
		// record starts after the stop signal.
		if dispatchCtx.Err() != nil {
			break Loop
		}
		select {
		case indexCh <- idx:
		case <-dispatchCtx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()

	return results
}

func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
