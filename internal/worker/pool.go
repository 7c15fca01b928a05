package worker

import (
	"context"
	"sync"

	"github.com/gyeh/denial-dash/internal/export"
	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/progress"
)

// Pool renders one export per format concurrently. Every job reads the same
// view, which is never modified.
type Pool struct {
	Workers  int
	Dest     Destination
	Progress progress.Manager
}

// Run exports view in every format of formats, with base supplying the
// shared request options. Results are returned in formats order. The caller
// waits on p.Progress.
func (p *Pool) Run(ctx context.Context, view filter.View, base export.Request, formats []export.Format) []JobResult {
	results := make([]JobResult, len(formats))

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, f := range formats {
		wg.Add(1)
		go func(idx int, format export.Format) {
			defer wg.Done()

			req := base
			req.Format = format
			name := format.FileName()
			if req.Gzip {
				name += ".gz"
			}
			tracker := p.Progress.NewTracker(idx, len(formats), name)

			// Acquire semaphore
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = JobResult{Format: format, Err: ctx.Err()}
				tracker.Fail(ctx.Err())
				return
			}
			defer func() { <-sem }()

			results[idx] = *RunJob(ctx, view, req, p.Dest, tracker)
		}(i, f)
	}

	wg.Wait()
	return results
}
