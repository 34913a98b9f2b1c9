package scheduler

import "math/rand/v2"

// Rand is the injectable randomness source behind fuzz() (spec.md §4.1,
// DESIGN NOTES "RNG for fuzz"): the source used wall-clock randomness
// directly, which made scheduling outcomes untestable. Here the scheduler
// takes a Rand so tests can pin fuzz to a fixed value and production wires a
// real generator.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// SystemRand wraps math/rand/v2's package-level source.
type SystemRand struct{}

func (SystemRand) Float64() float64 { return rand.Float64() }

// Fixed is a Rand stub that always returns the same value, for deterministic
// tests.
type Fixed float64

func (f Fixed) Float64() float64 { return float64(f) }
