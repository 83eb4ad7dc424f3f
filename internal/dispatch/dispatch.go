// Package dispatch fans a batch of candidates out to a bounded pool of
// concurrent oracle invocations and collects the outcomes in input order.
package dispatch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/keysweep/internal/keyspace"
	"github.com/cwbudde/keysweep/internal/oracle"
)

// Result pairs a candidate with its classification.
type Result struct {
	Candidate keyspace.Candidate
	Outcome   oracle.Outcome
}

// Pool runs batches with a fixed worker count. A batch is an atomic unit:
// every dispatched candidate runs to completion, and a mid-batch success
// never cancels the candidates already in flight.
type Pool struct {
	workers int
}

// DefaultWorkers is one fewer than the CPU count, at least one, leaving a
// core for the coordinator.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// NewPool returns a pool of the given size; sizes below one fall back to
// DefaultWorkers.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers()
	}
	return &Pool{workers: workers}
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Run tests every candidate in the batch and returns one result per
// candidate, in input order regardless of completion order. Run blocks until
// the whole batch has been collected.
func (p *Pool) Run(ctx context.Context, o oracle.Oracle, batch []keyspace.Candidate) []Result {
	results := make([]Result, len(batch))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, c := range batch {
		g.Go(func() error {
			results[i] = Result{Candidate: c, Outcome: o.Try(ctx, c.Value)}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
