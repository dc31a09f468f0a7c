package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/linkbudget"
	"github.com/ruddro-roy/satlink-planner/internal/propagation"
	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

type sampleResult struct {
	sample MarginSample
	err    error
}

// evalSamples computes one margin sample per grid timestamp using a
// bounded worker pool. Workers call the Source directly rather than
// through a memoizing sampler: grid timestamps never repeat, and the
// sampler's map is not safe for concurrent writes. Results land in a
// slice indexed by grid position, so output order matches the grid
// regardless of completion order.
func (e *Engine) evalSamples(ctx context.Context, src propagation.Source, grid []time.Time, site transform.Site, maskDeg float64, cfg linkbudget.Config) []sampleResult {
	results := make([]sampleResult, len(grid))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(grid) {
		workers = len(grid)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = evalOne(src, grid[i], site, maskDeg, cfg)
			}
		}()
	}

	for i := range grid {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func evalOne(src propagation.Source, t time.Time, site transform.Site, maskDeg float64, cfg linkbudget.Config) sampleResult {
	state, err := src.StateAt(t)
	if err != nil {
		return sampleResult{err: err}
	}
	topo := transform.Topocentric(state, t, site, maskDeg)
	budget, err := linkbudget.Compute(topo.RangeKm, topo.ElevationDeg, cfg)
	if err != nil {
		return sampleResult{err: err}
	}
	return sampleResult{sample: MarginSample{
		Time:         t,
		SNRdB:        budget.SNRdB,
		MarginDB:     budget.MarginDB,
		RangeKm:      topo.RangeKm,
		ElevationDeg: topo.ElevationDeg,
		AzimuthDeg:   topo.AzimuthDeg,
		Visible:      topo.Visible,
	}}
}
