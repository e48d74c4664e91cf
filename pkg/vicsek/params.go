// Package vicsek advances an ensemble of self-propelled particles under the
// Vicsek alignment rule on a periodic square domain.
//
// Each step every particle takes the circular mean heading of the particles
// closer than R (itself included), adds uniform noise of amplitude Eta*Pi and
// moves V0*Dt along its new heading. All headings are computed from the
// pre-step snapshot and committed together.
//
// A Simulator owns its state and does no I/O; rendering, export and timing
// belong to the caller, which reads Positions and Headings between steps.
package vicsek

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidParameter is wrapped by every construction failure.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvariantViolation is wrapped by Step when the ensemble state
	// becomes non-finite or leaves the domain. It is sticky.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Params holds the physical parameters of a run. They cannot change once
// a Simulator is built.
type Params struct {
	N   int     // particle count, >= 1
	L   float64 // domain side, > 0
	V0  float64 // speed
	Eta float64 // noise strength, 0 is deterministic alignment
	R   float64 // interaction radius, > 0
	Dt  float64 // time step, > 0
}

// Validate returns an error wrapping ErrInvalidParameter for the first
// rejected field.
func (p Params) Validate() error {
	if p.N < 1 {
		return fmt.Errorf("%w: N must be >= 1, got %d", ErrInvalidParameter, p.N)
	}
	fields := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"L", p.L, true},
		{"v0", p.V0, false},
		{"eta", p.Eta, false},
		{"r", p.R, true},
		{"dt", p.Dt, true},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, f.name, f.value)
		}
		if f.positive && f.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidParameter, f.name, f.value)
		}
	}
	return nil
}

// String implements the fmt.Stringer interface.
func (p Params) String() string {
	return fmt.Sprintf("N=%d L=%g v0=%g eta=%g r=%g dt=%g", p.N, p.L, p.V0, p.Eta, p.R, p.Dt)
}
