package vicsek

import (
	"math"
	"math/rand/v2"
	"time"
)

// NoiseSource yields uniform samples in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type NoiseSource interface {
	Float64() float64
}

// NewNoiseSource returns a PCG-backed source. Equal seeds give equal streams.
func NewNoiseSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func clockSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// angularNoise maps a uniform sample u in [0, 1) to [-eta*Pi, eta*Pi).
func angularNoise(eta, u float64) float64 {
	return eta * (u - 0.5) * 2 * math.Pi
}
