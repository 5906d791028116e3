// Package sweep runs independent scenario variants in parallel. Runs share
// no mutable state, so no locking is needed beyond collecting outcomes.
package sweep

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/kilianp07/sitesim/core/dispatch"
	"github.com/kilianp07/sitesim/core/logger"
	"github.com/kilianp07/sitesim/core/model"
)

// Variant pairs a scenario with its demand profile under a sweep label.
type Variant struct {
	Name     string
	Scenario model.ScenarioConfig
	Profile  model.DemandProfile
}

// Outcome is the result of one variant. Err is set when the variant failed
// validation or was cancelled; exactly one of Result and Err is meaningful.
type Outcome struct {
	SweepID string
	Variant string
	Result  *model.SimulationResult
	Err     error
}

// Runner distributes variants across worker goroutines.
type Runner struct {
	engine  *dispatch.Engine
	workers int
	log     logger.Logger
}

// NewRunner creates a Runner. A non-positive worker count defaults to the
// number of CPUs.
func NewRunner(engine *dispatch.Engine, workers int, log logger.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{engine: engine, workers: workers, log: log}
}

// Run executes all variants and returns outcomes in variant order. A failed
// variant does not stop the sweep; cancellation via ctx does.
func (r *Runner) Run(ctx context.Context, variants []Variant) []Outcome {
	sweepID := uuid.NewString()
	outcomes := make([]Outcome, len(variants))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v := variants[i]
				res, err := r.engine.Run(ctx, v.Scenario, v.Profile)
				outcomes[i] = Outcome{SweepID: sweepID, Variant: v.Name, Result: res, Err: err}
				if err != nil && r.log != nil {
					r.log.Errorf("sweep %s: variant %q: %v", sweepID, v.Name, err)
				}
			}
		}()
	}

	for i := range variants {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(variants); j++ {
				outcomes[j] = Outcome{SweepID: sweepID, Variant: variants[j].Name, Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return outcomes
		}
	}
	close(jobs)
	wg.Wait()
	return outcomes
}
