// Package analysis computes observables of a flock snapshot.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// OrderParameter returns the length of the mean unit heading vector,
// 1 for a perfectly aligned flock and close to 0 for random headings.
// It returns 0 for an empty slice.
func OrderParameter(headings []float64) float64 {
	if len(headings) == 0 {
		return 0
	}
	sin := make([]float64, len(headings))
	cos := make([]float64, len(headings))
	for i, h := range headings {
		sin[i], cos[i] = math.Sincos(h)
	}
	n := float64(len(headings))
	return math.Hypot(floats.Sum(sin)/n, floats.Sum(cos)/n)
}

// MeanHeading returns the circular mean heading in (-π, π].
func MeanHeading(headings []float64) float64 {
	if len(headings) == 0 {
		return 0
	}
	return stat.CircularMean(headings, nil)
}

// Normalize folds a heading into [0, 2π), the range expected by color maps.
func Normalize(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	if theta >= 2*math.Pi {
		theta = 0
	}
	return theta
}

// Series accumulates order parameter samples of one run.
type Series struct {
	burnIn  int
	samples []float64
}

// NewSeries returns a Series ignoring the first burnIn samples in Summary.
func NewSeries(burnIn int) *Series {
	return &Series{burnIn: max(burnIn, 0)}
}

// Add records one sample.
func (s *Series) Add(order float64) {
	s.samples = append(s.samples, order)
}

// Len returns the number of recorded samples, burn-in included.
func (s *Series) Len() int { return len(s.samples) }

// Samples returns the recorded samples.
func (s *Series) Samples() []float64 { return s.samples }

// Summary returns mean and standard deviation of the samples past burn-in.
// ok is false when there are none.
func (s *Series) Summary() (mean, std float64, ok bool) {
	if len(s.samples) <= s.burnIn {
		return 0, 0, false
	}
	steady := s.samples[s.burnIn:]
	if len(steady) == 1 {
		return steady[0], 0, true
	}
	mean, std = stat.MeanStdDev(steady, nil)
	return mean, std, true
}
