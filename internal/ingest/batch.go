package ingest

import (
	"context"
	"sync"
)

// Result is the outcome of one file in a batch.
type Result struct {
	Path   string
	Report *Report
	Err    error
}

// ProcessAll processes paths with at most Options.Workers files in flight.
// Results are returned in the order of paths. Files not started before ctx
// is cancelled get ctx's error.
func (s *Service) ProcessAll(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := s.opts.Workers
	if workers > len(paths) {
		workers = len(paths)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				report, err := s.ProcessFile(paths[i])
				results[i] = Result{Path: paths[i], Report: report, Err: err}
			}
		}()
	}

	next := 0
feed:
	for ; next < len(paths); next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(paths); i++ {
		results[i] = Result{Path: paths[i], Err: ctx.Err()}
	}
	return results
}
