package portfolio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/inventure/venturesim/internal/constants"
	"github.com/inventure/venturesim/internal/logging"
)

// Option tunes how Run executes. Options never change the statistics a
// run computes, only how trials are scheduled and reported.
type Option func(*runOptions)

type runOptions struct {
	workers  int
	progress func(done, total int)
	logger   *slog.Logger
}

// WithWorkers runs trials in parallel chunks on n goroutines. With n <= 1
// (the default) every draw comes straight from the caller's Source. With
// n > 1 each chunk gets a child stream seeded from the caller's Source, so a
// seeded run gives the same Result for any n > 1.
func WithWorkers(n int) Option {
	return func(o *runOptions) { o.workers = n }
}

// WithProgress registers a callback invoked between chunks of trials.
// Calls are serialized.
func WithProgress(fn func(done, total int)) Option {
	return func(o *runOptions) { o.progress = fn }
}

// WithLogger sets the logger for run summaries. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run simulates cfg.TrialCount cohorts and aggregates them into a Result.
//
// The Config is validated before any draw; an invalid Config returns a
// *ConfigError wrapping ErrInvalidConfiguration. A nil src uses a randomly
// seeded Source. ctx is checked between trials; on cancellation Run returns
// ctx.Err() and no partial result.
func Run(ctx context.Context, cfg Config, src Source, opts ...Option) (*Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := runOptions{workers: 1, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if src == nil {
		src = DefaultSource()
	}

	o.logger = o.logger.With("run_id", uuid.NewString())
	log := o.logger
	log.Debug("simulation started",
		"trials", cfg.TrialCount,
		"pre_seed_count", cfg.PreSeedCount,
		"correlation", cfg.Correlation,
		"workers", o.workers,
	)
	start := time.Now()

	var (
		t   *tally
		err error
	)
	if o.workers <= 1 {
		t, err = runSequential(ctx, cfg, src, &o)
	} else {
		t, err = runParallel(ctx, cfg, src, &o)
	}
	if err != nil {
		log.Debug("simulation aborted", "error", err)
		return nil, err
	}

	res := t.result(cfg)
	log.Info("simulation complete",
		"trials", res.TrialCount,
		"workers", o.workers,
		"expected_success_count", res.ExpectedSuccessCount,
		"probability_of_target", res.ProbabilityOfTarget,
		"duration", time.Since(start),
	)
	return res, nil
}

// chunkDone reports progress after a chunk of trials to the trace log and
// the progress callback. Callers serialize it.
func (o *runOptions) chunkDone(ctx context.Context, done, total int) {
	o.logger.Log(ctx, logging.LevelTrace, "simulation progress", "done", done, "total", total)
	if o.progress != nil {
		o.progress(done, total)
	}
}

// cohort holds the per-run constants of the trial loop.
type cohort struct {
	size  int
	rates [NumStages - 1]float64
	corr  float64
	carry float64
}

func newCohort(cfg Config) cohort {
	return cohort{
		size:  cfg.PreSeedCount,
		rates: cfg.Rates.transitions(),
		corr:  cfg.Correlation,
		carry: cfg.carry(),
	}
}

// simulate runs one trial. Per transition it draws the fresh part of the
// common factor first, then one draw per project still in the cohort.
func (c cohort) simulate(src Source) trial {
	var tr trial
	n := c.size
	tr.counts[PreSeed] = n

	var common float64
	for i, rate := range c.rates {
		fresh := src.Float64()
		if i == 0 {
			common = fresh
		} else {
			common = c.carry*common + (1-c.carry)*fresh
		}

		advanced := 0
		for j := 0; j < n; j++ {
			combined := c.corr*common + (1-c.corr)*src.Float64()
			if combined < rate {
				advanced++
			}
		}
		n = advanced
		tr.counts[i+1] = n
	}
	return tr
}

func runSequential(ctx context.Context, cfg Config, src Source, o *runOptions) (*tally, error) {
	c := newCohort(cfg)
	t := newTally()
	for i := 0; i < cfg.TrialCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t.add(c.simulate(src), cfg.TargetCount)

		done := i + 1
		if done%constants.TrialChunkSize == 0 || done == cfg.TrialCount {
			o.chunkDone(ctx, done, cfg.TrialCount)
		}
	}
	return t, nil
}

func runParallel(ctx context.Context, cfg Config, src Source, o *runOptions) (*tally, error) {
	c := newCohort(cfg)
	size := constants.TrialChunkSize
	chunks := (cfg.TrialCount + size - 1) / size

	// Child streams are drawn up front and in order so they do not depend
	// on goroutine scheduling.
	sources := make([]Source, chunks)
	for i := range sources {
		sources[i] = childSource(src, i)
	}
	parts := make([]*tally, chunks)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := 0; i < chunks; i++ {
		lo := i * size
		hi := min(lo+size, cfg.TrialCount)
		g.Go(func() error {
			part := newTally()
			for j := lo; j < hi; j++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				part.add(c.simulate(sources[i]), cfg.TargetCount)
			}
			parts[i] = part

			mu.Lock()
			done += hi - lo
			o.chunkDone(gctx, done, cfg.TrialCount)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t := newTally()
	for _, p := range parts {
		t.merge(p)
	}
	return t, nil
}
