package driver

import (
	"context"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/cwbudde/curvefit/internal/opt"
)

// RaceEntry is the outcome of one algorithm in a race
type RaceEntry struct {
	Algorithm string
	Result    *Result
	Err       error
}

// Race runs every named algorithm on the same dataset concurrently, at most
// maxParallel at a time (0 means all at once). Each optimizer is owned by its
// own goroutine. Entries are sorted by best loss; failed entries sort last.
// opts.Updates is ignored and opts.OnStep must be safe for concurrent use.
func Race(ctx context.Context, names []string, opts Options, maxParallel int) ([]RaceEntry, error) {
	optimizers := make([]opt.Optimizer, len(names))
	for i, name := range names {
		seed := opts.Seed
		if seed != 0 {
			seed += int64(i)
		}
		o, err := opt.New(name, seed)
		if err != nil {
			return nil, err
		}
		optimizers[i] = o
	}

	if maxParallel <= 0 {
		maxParallel = len(names)
	}

	raceOpts := opts
	raceOpts.Updates = nil

	p := pool.NewWithResults[RaceEntry]().WithMaxGoroutines(max(maxParallel, 1))
	for _, o := range optimizers {
		p.Go(func() RaceEntry {
			result, err := Run(ctx, o, raceOpts)
			if err != nil {
				err = fmt.Errorf("%s: %w", o.Name(), err)
			}
			return RaceEntry{Algorithm: o.Name(), Result: result, Err: err}
		})
	}
	entries := p.Wait()

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.Err != nil {
			return a.Algorithm < b.Algorithm
		}
		return a.Result.BestLoss < b.Result.BestLoss
	})
	return entries, nil
}
