package vicsek

import (
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNoise replays values in a loop. 0.5 maps to zero angular noise.
type fixedNoise struct {
	values []float64
	next   int
}

func (f *fixedNoise) Float64() float64 {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}

func quiet() *fixedNoise { return &fixedNoise{values: []float64{0.5}} }

// angleDiff returns a-b folded into (-π, π].
func angleDiff(a, b float64) float64 {
	return math.Remainder(a-b, 2*math.Pi)
}

func randomSimulator(t testing.TB, p Params, seed uint64, opts ...Option) *Simulator {
	t.Helper()
	src := NewNoiseSource(seed)
	positions := UniformPositions(p.N, p.L, src)
	headings := UniformHeadings(p.N, src)
	sim, err := New(p, positions, headings, append([]Option{WithSeed(seed)}, opts...)...)
	require.NoError(t, err)
	return sim
}

func TestNew_InvalidParameter(t *testing.T) {
	valid := Params{N: 2, L: 10, V0: 0.2, Eta: 0.1, R: 1, Dt: 0.5}
	positions := []geometry.Vector2D{{X: 1, Y: 1}, {X: 2, Y: 2}}
	headings := []float64{0, 1}

	tests := []struct {
		name      string
		mutate    func(p *Params)
		positions []geometry.Vector2D
		headings  []float64
	}{
		{name: "N zero", mutate: func(p *Params) { p.N = 0 }},
		{name: "L zero", mutate: func(p *Params) { p.L = 0 }},
		{name: "L negative", mutate: func(p *Params) { p.L = -1 }},
		{name: "r zero", mutate: func(p *Params) { p.R = 0 }},
		{name: "dt zero", mutate: func(p *Params) { p.Dt = 0 }},
		{name: "eta NaN", mutate: func(p *Params) { p.Eta = math.NaN() }},
		{name: "v0 infinite", mutate: func(p *Params) { p.V0 = math.Inf(1) }},
		{name: "position on upper edge", positions: []geometry.Vector2D{{X: 10, Y: 1}, {X: 2, Y: 2}}},
		{name: "negative position", positions: []geometry.Vector2D{{X: 1, Y: -0.1}, {X: 2, Y: 2}}},
		{name: "too few positions", positions: []geometry.Vector2D{{X: 1, Y: 1}}},
		{name: "too many headings", headings: []float64{0, 1, 2}},
		{name: "NaN heading", headings: []float64{0, math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			if tt.mutate != nil {
				tt.mutate(&p)
			}
			pos, hd := positions, headings
			if tt.positions != nil {
				pos = tt.positions
			}
			if tt.headings != nil {
				hd = tt.headings
			}
			sim, err := New(p, pos, hd)
			require.ErrorIs(t, err, ErrInvalidParameter)
			assert.Nil(t, sim)
		})
	}

	sim, err := New(valid, positions, headings)
	require.NoError(t, err)
	assert.Equal(t, 2, sim.N())
}

func TestNew_CopiesInitialState(t *testing.T) {
	positions := []geometry.Vector2D{{X: 1, Y: 1}}
	headings := []float64{0.3}
	sim, err := New(Params{N: 1, L: 10, V0: 1, R: 1, Dt: 1}, positions, headings)
	require.NoError(t, err)

	positions[0].X = 5
	headings[0] = 2
	assert.Equal(t, geometry.Vector2D{X: 1, Y: 1}, sim.Positions()[0])
	assert.Equal(t, 0.3, sim.Headings()[0])

	snapshot := sim.Positions()
	snapshot[0].Y = 7
	assert.Equal(t, 1.0, sim.Positions()[0].Y, "snapshots must not alias the ensemble")
}

func TestStep_DomainContainment(t *testing.T) {
	for _, search := range []struct {
		name string
		ns   NeighborSearch
	}{
		{"bruteforce", NewBruteForce()},
		{"celllist", NewCellList()},
	} {
		t.Run(search.name, func(t *testing.T) {
			// a stride of 3.5 on a box of 5 crosses the boundary constantly
			p := Params{N: 200, L: 5, V0: 7, Eta: 1, R: 0.5, Dt: 0.5}
			sim := randomSimulator(t, p, 42, WithNeighborSearch(search.ns))
			for step := 0; step < 100; step++ {
				require.NoError(t, sim.Step())
				for i, pos := range sim.Positions() {
					require.Truef(t, pos.X >= 0 && pos.X < p.L && pos.Y >= 0 && pos.Y < p.L,
						"step %d particle %d at %v left the domain", step, i, pos)
				}
			}
			assert.Equal(t, uint64(100), sim.StepCount())
		})
	}
}

func TestStep_CircularMeanAcrossZero(t *testing.T) {
	p := Params{N: 2, L: 10, V0: 0, Eta: 0, R: 1, Dt: 1}
	positions := []geometry.Vector2D{{X: 5, Y: 5}, {X: 5.2, Y: 5}}
	headings := []float64{0.01, 2*math.Pi - 0.01}

	sim, err := New(p, positions, headings, WithNoiseSource(quiet()))
	require.NoError(t, err)
	require.NoError(t, sim.Step())

	for i, h := range sim.Headings() {
		assert.InDeltaf(t, 0, angleDiff(h, 0), 1e-9, "particle %d heading %v should be near 0, not π", i, h)
	}
}

func TestStep_NeighborsAcrossPeriodicEdge(t *testing.T) {
	p := Params{N: 2, L: 10, V0: 0, Eta: 0, R: 1, Dt: 1}
	positions := []geometry.Vector2D{{X: 0.01, Y: 0}, {X: 10 - 0.01, Y: 0}}
	headings := []float64{0, math.Pi / 2}

	sim, err := New(p, positions, headings, WithNoiseSource(quiet()))
	require.NoError(t, err)
	require.NoError(t, sim.Step())

	// both see each other, so both take the mean of {0, π/2}
	for i, h := range sim.Headings() {
		assert.InDeltaf(t, math.Pi/4, h, 1e-12, "particle %d", i)
	}
}

func TestStep_NoNoiseAlignsConnectedFlock(t *testing.T) {
	p := Params{N: 10, L: 10, V0: 0.2, Eta: 0, R: 1, Dt: 0.5}
	src := NewNoiseSource(7)
	positions := make([]geometry.Vector2D, p.N)
	for i := range positions {
		// inside a 0.5 x 0.5 square, so every pair is closer than r
		positions[i] = geometry.Vector2D{X: 3 + src.Float64()*0.5, Y: 3 + src.Float64()*0.5}
	}
	headings := UniformHeadings(p.N, src)

	sim, err := New(p, positions, headings, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, sim.Step())

	after := sim.Headings()
	for i := 1; i < len(after); i++ {
		assert.InDelta(t, after[0], after[i], 1e-12)
	}
}

func TestStep_ZeroSpeedKeepsPositions(t *testing.T) {
	p := Params{N: 50, L: 4, V0: 0, Eta: 2, R: 1, Dt: 0.5}
	sim := randomSimulator(t, p, 3)
	before := sim.Positions()
	headingsBefore := sim.Headings()

	for range 25 {
		require.NoError(t, sim.Step())
	}
	assert.Equal(t, before, sim.Positions())
	assert.NotEqual(t, headingsBefore, sim.Headings(), "headings still evolve under noise")
}

func TestStep_Deterministic(t *testing.T) {
	p := Params{N: 120, L: 6, V0: 0.3, Eta: 0.4, R: 1, Dt: 0.5}

	t.Run("same seed", func(t *testing.T) {
		a := randomSimulator(t, p, 99)
		b := randomSimulator(t, p, 99)
		for range 30 {
			require.NoError(t, a.Step())
			require.NoError(t, b.Step())
		}
		assert.Equal(t, a.Positions(), b.Positions())
		assert.Equal(t, a.Headings(), b.Headings())
	})

	t.Run("fixed noise source", func(t *testing.T) {
		seq := []float64{0.1, 0.7, 0.33, 0.9, 0.5}
		src := NewNoiseSource(5)
		positions := UniformPositions(p.N, p.L, src)
		headings := UniformHeadings(p.N, src)

		run := func() *Simulator {
			sim, err := New(p, positions, headings, WithNoiseSource(&fixedNoise{values: seq}))
			require.NoError(t, err)
			for range 20 {
				require.NoError(t, sim.Step())
			}
			return sim
		}
		a, b := run(), run()
		assert.Equal(t, a.Positions(), b.Positions())
		assert.Equal(t, a.Headings(), b.Headings())
	})

	t.Run("workers do not change the result", func(t *testing.T) {
		big := Params{N: 600, L: 12, V0: 0.3, Eta: 0.4, R: 1, Dt: 0.5}
		serial := randomSimulator(t, big, 11)
		parallel := randomSimulator(t, big, 11, WithWorkers(4))
		for range 10 {
			require.NoError(t, serial.Step())
			require.NoError(t, parallel.Step())
		}
		assert.Equal(t, serial.Headings(), parallel.Headings())
		assert.Equal(t, serial.Positions(), parallel.Positions())
	})
}

func TestStep_ThreeParticleScenario(t *testing.T) {
	p := Params{N: 3, L: 10, V0: 0.2, Eta: 0, R: 1, Dt: 0.5}
	positions := []geometry.Vector2D{{X: 1, Y: 1}, {X: 1.5, Y: 1}, {X: 8, Y: 1}}
	headings := []float64{0, math.Pi / 2, math.Pi}

	for _, ns := range []NeighborSearch{NewBruteForce(), NewCellList()} {
		sim, err := New(p, positions, headings, WithNoiseSource(quiet()), WithNeighborSearch(ns))
		require.NoError(t, err)
		require.NoError(t, sim.Step())

		got := sim.Headings()
		assert.InDelta(t, math.Pi/4, got[0], 1e-12)
		assert.InDelta(t, math.Pi/4, got[1], 1e-12)
		assert.InDelta(t, 0, angleDiff(got[2], math.Pi), 1e-12, "isolated particle keeps its heading")

		// each particle moved v0*dt = 0.1 along its new heading
		moved := sim.Positions()
		stride := p.V0 * p.Dt
		want0 := geometry.Vector2D{X: 1 + stride*math.Cos(math.Pi/4), Y: 1 + stride*math.Sin(math.Pi/4)}
		want2 := geometry.Vector2D{X: 8 - stride, Y: 1}
		assert.True(t, moved[0].Eq(want0), "particle 0 at %v, want %v", moved[0], want0)
		assert.True(t, moved[2].Eq(want2), "particle 2 at %v, want %v", moved[2], want2)
	}
}

func TestStep_WrapsNegativePositions(t *testing.T) {
	p := Params{N: 1, L: 10, V0: 1, Eta: 0, R: 1, Dt: 0.5}
	sim, err := New(p, []geometry.Vector2D{{X: 0.1, Y: 0.1}}, []float64{math.Pi}, WithNoiseSource(quiet()))
	require.NoError(t, err)
	require.NoError(t, sim.Step())

	got := sim.Positions()[0]
	assert.InDelta(t, 9.6, got.X, 1e-9)
	assert.InDelta(t, 0.1, got.Y, 1e-9)
}

func TestStep_InvariantViolationIsSticky(t *testing.T) {
	// the noise term overflows to +Inf
	p := Params{N: 4, L: 10, V0: 0.2, Eta: math.MaxFloat64, R: 1, Dt: 0.5}
	src := NewNoiseSource(1)
	positions := UniformPositions(p.N, p.L, src)
	headings := UniformHeadings(p.N, src)

	sim, err := New(p, positions, headings, WithNoiseSource(&fixedNoise{values: []float64{0.99}}))
	require.NoError(t, err)

	err = sim.Step()
	require.ErrorIs(t, err, ErrInvariantViolation)
	assert.ErrorIs(t, sim.Err(), ErrInvariantViolation)

	// nothing was committed
	assert.Equal(t, positions, sim.Positions())
	assert.Equal(t, headings, sim.Headings())
	assert.Equal(t, uint64(0), sim.StepCount())

	// and the simulator refuses to go on
	assert.Equal(t, err, sim.Step())
	assert.Equal(t, uint64(0), sim.StepCount())
}

// selfless drops i from its own neighbor set, breaking the search contract.
type selfless struct{ BruteForce }

func (s *selfless) ForEach(i int, visit func(j int)) {
	s.BruteForce.ForEach(i, func(j int) {
		if j != i {
			visit(j)
		}
	})
}

func TestStep_EmptyNeighborSetIsAnInvariantViolation(t *testing.T) {
	p := Params{N: 2, L: 10, V0: 0.2, Eta: 0, R: 1, Dt: 0.5}
	positions := []geometry.Vector2D{{X: 1, Y: 1}, {X: 6, Y: 6}}
	sim, err := New(p, positions, []float64{0, 1}, WithNeighborSearch(&selfless{}))
	require.NoError(t, err)

	require.ErrorIs(t, sim.Step(), ErrInvariantViolation)
}

func BenchmarkStep(b *testing.B) {
	p := Params{N: 1000, L: 30, V0: 0.2, Eta: 0.3, R: 1, Dt: 0.5}
	cases := []struct {
		name string
		opts []Option
	}{
		{"bruteforce", []Option{WithNeighborSearch(NewBruteForce())}},
		{"celllist", []Option{WithNeighborSearch(NewCellList())}},
		{"celllist-4workers", []Option{WithNeighborSearch(NewCellList()), WithWorkers(4)}},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			sim := randomSimulator(b, p, 1, c.opts...)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := sim.Step(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
