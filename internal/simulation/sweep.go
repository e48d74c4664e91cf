package simulation

import (
	"context"
	"fmt"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/config"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/store"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/analysis"
	golog "github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"
)

// SweepOptions describes a noise sweep: EtaCount runs with eta evenly
// spaced over [EtaMin, EtaMax], each Steps steps long.
type SweepOptions struct {
	EtaMin, EtaMax float64
	EtaCount       int
	Steps          int
	BurnIn         int // steps excluded from the summary
	Parallel       int // runs in flight, 0 or less means one
}

// Etas returns the noise values of the sweep.
func (o SweepOptions) Etas() []float64 {
	if o.EtaCount <= 1 {
		return []float64{o.EtaMin}
	}
	etas := make([]float64, o.EtaCount)
	span := (o.EtaMax - o.EtaMin) / float64(o.EtaCount-1)
	for i := range etas {
		etas[i] = o.EtaMin + float64(i)*span
	}
	return etas
}

func (o SweepOptions) validate() error {
	switch {
	case o.EtaCount < 1:
		return fmt.Errorf("eta count must be at least 1, got %d", o.EtaCount)
	case o.EtaMin < 0 || o.EtaMax < o.EtaMin:
		return fmt.Errorf("invalid eta range [%g, %g]", o.EtaMin, o.EtaMax)
	case o.Steps < 1:
		return fmt.Errorf("steps must be at least 1, got %d", o.Steps)
	case o.BurnIn < 0 || o.BurnIn > o.Steps:
		return fmt.Errorf("burn-in %d outside [0, %d]", o.BurnIn, o.Steps)
	}
	return nil
}

// Sweep runs one simulation per noise value, stores the order parameter
// of every step in st and returns the summaries of the runs it created,
// leaving earlier runs in st out. Run i uses seed cfg.Seed+i, so a sweep
// with a fixed seed is reproducible.
func Sweep(ctx context.Context, cfg *config.Config, st *store.Store, opts SweepOptions, logger golog.Logger) ([]store.RunSummary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	etas := opts.Etas()
	ids := make([]int64, len(etas))

	// gctx is cancelled once Wait returns, the summary uses ctx
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallel, 1))
	for i, eta := range etas {
		run := *cfg
		run.Eta = eta
		run.Seed = cfg.Seed + uint64(i)
		g.Go(func() error {
			id, err := sweepOne(gctx, &run, st, opts, logger)
			ids[i] = id
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st.Summary(ctx, uint64(opts.BurnIn), ids...)
}

func sweepOne(ctx context.Context, cfg *config.Config, st *store.Store, opts SweepOptions, logger golog.Logger) (int64, error) {
	sim, err := cfg.NewSimulator()
	if err != nil {
		return 0, err
	}
	run, err := st.CreateRun(ctx, sim.Params(), cfg.Seed)
	if err != nil {
		return 0, err
	}

	series := analysis.NewSeries(opts.BurnIn)
	samples := make([]store.Sample, 0, opts.Steps+1)
	record := func() {
		order := analysis.OrderParameter(sim.Headings())
		series.Add(order)
		samples = append(samples, store.Sample{Step: sim.StepCount(), Order: order})
	}

	record()
	for range opts.Steps {
		if err := ctx.Err(); err != nil {
			return run.ID, err
		}
		if err := sim.Step(); err != nil {
			return run.ID, fmt.Errorf("run %d (eta=%g): %w", run.ID, cfg.Eta, err)
		}
		record()
	}
	if err := st.AddSamples(ctx, run.ID, samples); err != nil {
		return run.ID, err
	}

	mean, std, _ := series.Summary()
	logger.Infof("run %d: eta=%.3f order=%.3f±%.3f", run.ID, cfg.Eta, mean, std)
	return run.ID, nil
}
