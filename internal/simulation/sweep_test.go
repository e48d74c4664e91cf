package simulation

import (
	"context"
	"testing"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	golog "github.com/tochemey/goakt/v3/log"
)

func TestSweepOptions_Etas(t *testing.T) {
	tests := []struct {
		name string
		opts SweepOptions
		want []float64
	}{
		{"single", SweepOptions{EtaMin: 0.3, EtaMax: 5, EtaCount: 1}, []float64{0.3}},
		{"endpoints included", SweepOptions{EtaMin: 0, EtaMax: 2, EtaCount: 5}, []float64{0, 0.5, 1, 1.5, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, tt.opts.Etas(), 1e-12)
		})
	}
}

func TestSweep_Rejects(t *testing.T) {
	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer st.Close()

	for name, opts := range map[string]SweepOptions{
		"no runs":        {EtaMax: 1, Steps: 10},
		"reversed range": {EtaMin: 2, EtaMax: 1, EtaCount: 2, Steps: 10},
		"no steps":       {EtaMax: 1, EtaCount: 2},
		"long burn-in":   {EtaMax: 1, EtaCount: 2, Steps: 10, BurnIn: 11},
	} {
		_, err := Sweep(context.Background(), smallConfig(), st, opts, golog.DiscardLogger)
		assert.Error(t, err, name)
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	cfg := smallConfig()
	cfg.N = 100
	cfg.L = 3
	opts := SweepOptions{EtaMin: 0.1, EtaMax: 6, EtaCount: 2, Steps: 120, BurnIn: 60, Parallel: 2}

	sum, err := Sweep(ctx, cfg, st, opts, golog.DiscardLogger)
	require.NoError(t, err)
	require.Len(t, sum, 2)

	quiet, noisy := sum[0], sum[1]
	assert.InDelta(t, 0.1, quiet.Params.Eta, 1e-12)
	assert.InDelta(t, 6, noisy.Params.Eta, 1e-12)
	assert.Equal(t, 61, quiet.Samples, "steps 60..120")
	assert.Equal(t, cfg.Seed, quiet.Seed)
	assert.Equal(t, cfg.Seed+1, noisy.Seed)

	// dense, nearly noiseless flocks order; near-maximal noise does not
	assert.Greater(t, quiet.Mean, 0.9)
	assert.Less(t, noisy.Mean, 0.5)
	assert.Equal(t, 0.4, cfg.Eta, "caller config untouched")

	samples, err := st.Samples(ctx, quiet.ID)
	require.NoError(t, err)
	assert.Len(t, samples, opts.Steps+1)
	assert.Equal(t, uint64(0), samples[0].Step)
}

func TestSweep_ReportsOnlyItsOwnRuns(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	opts := SweepOptions{EtaMin: 0.2, EtaMax: 1, EtaCount: 2, Steps: 4, Parallel: 2}

	first := smallConfig()
	first.N = 20
	before, err := Sweep(ctx, first, st, opts, golog.DiscardLogger)
	require.NoError(t, err)
	require.Len(t, before, 2)

	second := smallConfig()
	second.N = 30
	after, err := Sweep(ctx, second, st, opts, golog.DiscardLogger)
	require.NoError(t, err)
	require.Len(t, after, 2)
	for _, rs := range after {
		assert.Equal(t, 30, rs.Params.N)
		assert.Equal(t, 5, rs.Samples)
		assert.NotEqual(t, before[0].ID, rs.ID)
		assert.NotEqual(t, before[1].ID, rs.ID)
	}

	all, err := st.Summary(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSweep_CancelledAfterReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	sum, err := Sweep(ctx, smallConfig(), st, SweepOptions{EtaMax: 1, EtaCount: 3, Steps: 2, Parallel: 3}, golog.DiscardLogger)
	require.NoError(t, err)
	assert.Len(t, sum, 3)
	assert.NoError(t, ctx.Err(), "the caller's context stays live")
}
