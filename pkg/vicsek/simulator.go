package vicsek

import (
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest number of particles handed to one worker.
// Below that the goroutine overhead outweighs the work.
const minChunk = 64

// Simulator owns one particle ensemble and advances it with Step.
//
// A Simulator is not safe for concurrent use: the driver calls Step once
// per tick and reads the snapshots between calls.
type Simulator struct {
	params Params
	torus  geometry.Torus

	positions []geometry.Vector2D
	headings  []float64

	// back buffers, swapped with the front ones when a step commits
	nextPositions []geometry.Vector2D
	nextHeadings  []float64

	// unit heading vectors of the pre-step headings
	unit []geometry.Vector2D

	search  NeighborSearch
	noise   NoiseSource
	seed    uint64
	seeded  bool
	workers int

	steps uint64
	err   error
}

// Option configures a Simulator at construction time.
type Option func(*Simulator)

// WithNeighborSearch replaces the default BruteForce search.
func WithNeighborSearch(ns NeighborSearch) Option {
	return func(s *Simulator) {
		if ns != nil {
			s.search = ns
		}
	}
}

// WithNoiseSource injects the uniform source used for angular noise.
// It takes precedence over WithSeed.
func WithNoiseSource(src NoiseSource) Option {
	return func(s *Simulator) {
		if src != nil {
			s.noise = src
		}
	}
}

// WithSeed seeds the default noise source, making runs reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
		s.seeded = true
	}
}

// WithWorkers spreads the neighbor averaging over n goroutines.
// n <= 1 keeps the step on the calling goroutine.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		s.workers = n
	}
}

// New validates p and the initial state and returns a ready Simulator.
// positions and headings are copied; every position must already lie in
// [0, L) on both axes.
func New(p Params, positions []geometry.Vector2D, headings []float64, opts ...Option) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(positions) != p.N {
		return nil, fmt.Errorf("%w: got %d positions for N=%d", ErrInvalidParameter, len(positions), p.N)
	}
	if len(headings) != p.N {
		return nil, fmt.Errorf("%w: got %d headings for N=%d", ErrInvalidParameter, len(headings), p.N)
	}

	torus := geometry.Torus{L: p.L}
	for i, pos := range positions {
		if !torus.Contains(pos) {
			return nil, fmt.Errorf("%w: position %d %v outside [0, %g)", ErrInvalidParameter, i, pos, p.L)
		}
	}
	for i, h := range headings {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return nil, fmt.Errorf("%w: heading %d is %v", ErrInvalidParameter, i, h)
		}
	}

	s := &Simulator{
		params:        p,
		torus:         torus,
		positions:     append([]geometry.Vector2D(nil), positions...),
		headings:      append([]float64(nil), headings...),
		nextPositions: make([]geometry.Vector2D, p.N),
		nextHeadings:  make([]float64, p.N),
		unit:          make([]geometry.Vector2D, p.N),
		workers:       1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.search == nil {
		s.search = NewBruteForce()
	}
	if s.noise == nil {
		if !s.seeded {
			s.seed = clockSeed()
		}
		s.noise = NewNoiseSource(s.seed)
	}
	return s, nil
}

// Step advances the ensemble by one Dt.
//
// New headings are computed from the pre-step snapshot into a back buffer,
// noise is added in particle order, positions are moved along the new
// headings and wrapped into the domain. The buffers are swapped only when
// the result is finite. Otherwise the error, wrapping ErrInvariantViolation,
// is kept and returned by every later call without touching the state.
func (s *Simulator) Step() error {
	if s.err != nil {
		return s.err
	}

	for i, h := range s.headings {
		sin, cos := math.Sincos(h)
		s.unit[i] = geometry.NewVector(cos, sin)
	}
	s.search.Index(s.positions, s.torus, s.params.R)

	if err := s.align(); err != nil {
		s.err = err
		return err
	}

	for i := range s.nextHeadings {
		s.nextHeadings[i] += angularNoise(s.params.Eta, s.noise.Float64())
	}

	stride := s.params.V0 * s.params.Dt
	for i, h := range s.nextHeadings {
		sin, cos := math.Sincos(h)
		step := geometry.NewVector(cos, sin).Mul(stride)
		s.nextPositions[i] = s.torus.Wrap(s.positions[i].Add(step))
	}

	if err := s.checkInvariants(); err != nil {
		s.err = err
		return err
	}

	s.headings, s.nextHeadings = s.nextHeadings, s.headings
	s.positions, s.nextPositions = s.nextPositions, s.positions
	s.steps++
	return nil
}

// align writes the circular mean heading of each neighbor set into
// nextHeadings, splitting particles across workers when asked to.
func (s *Simulator) align() error {
	n := s.params.N
	workers := min(s.workers, n/minChunk)
	if workers <= 1 {
		return s.alignRange(0, n)
	}

	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return s.alignRange(lo, hi)
		})
	}
	return g.Wait()
}

func (s *Simulator) alignRange(lo, hi int) error {
	for i := lo; i < hi; i++ {
		var sum geometry.Vector2D
		count := 0
		s.search.ForEach(i, func(j int) {
			sum = sum.Add(s.unit[j])
			count++
		})
		if count == 0 {
			return fmt.Errorf("%w: particle %d has an empty neighbor set at step %d", ErrInvariantViolation, i, s.steps)
		}
		s.nextHeadings[i] = sum.Mul(1 / float64(count)).Angle()
	}
	return nil
}

func (s *Simulator) checkInvariants() error {
	for i, h := range s.nextHeadings {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return fmt.Errorf("%w: heading of particle %d is %v at step %d", ErrInvariantViolation, i, h, s.steps)
		}
	}
	for i, p := range s.nextPositions {
		if !p.IsFinite() || !s.torus.Contains(p) {
			return fmt.Errorf("%w: position of particle %d is %v at step %d", ErrInvariantViolation, i, p, s.steps)
		}
	}
	return nil
}

// Positions returns a copy of the current positions.
func (s *Simulator) Positions() []geometry.Vector2D {
	return append([]geometry.Vector2D(nil), s.positions...)
}

// Headings returns a copy of the current headings in radians. They are
// not normalized.
func (s *Simulator) Headings() []float64 {
	return append([]float64(nil), s.headings...)
}

// Params returns the parameters the simulator was built with.
func (s *Simulator) Params() Params { return s.params }

// N returns the particle count.
func (s *Simulator) N() int { return s.params.N }

// Torus returns the periodic domain.
func (s *Simulator) Torus() geometry.Torus { return s.torus }

// StepCount returns the number of committed steps.
func (s *Simulator) StepCount() uint64 { return s.steps }

// Err returns the invariant violation that stopped the simulator, if any.
func (s *Simulator) Err() error { return s.err }
