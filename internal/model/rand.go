package model

import "math/rand/v2"

// Rand is the randomness source used for spawn positions and spore radii.
// Tests inject a fixed-sequence instance so spawn and respawn scenarios
// stay deterministic.
type Rand interface {
	Float64() float64
}

// DefaultRand returns a new PCG randomness source seeded from the
// process-global generator.
func DefaultRand() Rand {
	return rand.New(rand.NewPCG(uint64(rand.Uint64()), uint64(rand.Uint64())))
}
