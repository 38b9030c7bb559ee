package triage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// RunnerConfig controls continuous triage operation.
type RunnerConfig struct {
	// Workers is the number of concurrent cycle loops. Safe above 1 only
	// because Store.ClaimNext is atomic; the store guarantees no two workers
	// ever hold the same transaction.
	Workers int

	// PollInterval is how long a worker sleeps after finding the queue empty.
	PollInterval time.Duration

	// MaxIterations caps total cycles across all workers. 0 means unlimited.
	MaxIterations int
}

// Runner drives the state machine continuously. The machine itself processes
// exactly one transaction per cycle; looping and concurrency live here.
type Runner struct {
	machine *Machine
	cfg     RunnerConfig
	logger  log.Logger
}

// NewRunner creates a continuous driver for the given machine.
func NewRunner(machine *Machine, cfg RunnerConfig, logger log.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Runner{machine: machine, cfg: cfg, logger: logger}
}

// Run executes cycles until ctx is cancelled or MaxIterations is reached.
// A cycle that surfaces an error (store unavailable) is logged and counted;
// the runner keeps going so one bad poll never kills monitoring.
func (r *Runner) Run(ctx context.Context) {
	var iterations atomic.Int64
	var wg sync.WaitGroup

	r.logger.Info(ctx, "starting continuous triage",
		"workers", r.cfg.Workers,
		"poll_interval", r.cfg.PollInterval.String(),
		"max_iterations", r.cfg.MaxIterations,
	)

	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			L := r.logger.With("worker", worker)
			for {
				if ctx.Err() != nil {
					return
				}
				if limit := int64(r.cfg.MaxIterations); limit > 0 && iterations.Add(1) > limit {
					return
				}

				res, err := r.machine.RunCycle(ctx)
				if err != nil {
					L.Error(ctx, err, "triage cycle failed")
					r.sleep(ctx)
					continue
				}
				if !res.HasTransaction {
					r.sleep(ctx)
				}
			}
		}(i)
	}

	wg.Wait()
	r.logger.Info(ctx, "continuous triage stopped", "iterations", iterations.Load())
}

func (r *Runner) sleep(ctx context.Context) {
	t := time.NewTimer(r.cfg.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
