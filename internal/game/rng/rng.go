// Package rng provides the seeded pseudo-random source used for every
// shuffle, coin flip and card instance id in a match.
package rng

// LCG parameters (Numerical Recipes). The modulus is 2^32, so arithmetic on
// uint32 wraps naturally.
const (
	multiplier uint32 = 1664525
	increment  uint32 = 1013904223
	modulus           = 4294967296.0
)

// SeededRNG is a deterministic linear congruential generator.
// It is not safe for concurrent use.
type SeededRNG struct {
	initial uint32
	state   uint32
}

// New creates a generator for the given seed. Only the low 32 bits are used.
func New(seed int64) *SeededRNG {
	s := uint32(seed)
	return &SeededRNG{initial: s, state: s}
}

// Next advances the generator and returns a value in [0, 1).
func (r *SeededRNG) Next() float64 {
	r.state = r.state*multiplier + increment
	return float64(r.state) / modulus
}

// NextInt returns an integer in [min, max). It returns min when max <= min.
func (r *SeededRNG) NextInt(min, max int) int {
	if max <= min {
		return min
	}
	return int(r.Next()*float64(max-min)) + min
}

// Seed returns the seed the generator was created with.
func (r *SeededRNG) Seed() uint32 {
	return r.initial
}

// State returns the current internal state.
func (r *SeededRNG) State() uint32 {
	return r.state
}

// Reset rewinds the generator to its initial seed.
func (r *SeededRNG) Reset() {
	r.state = r.initial
}

// Shuffle returns a Fisher-Yates shuffled copy of items. The input slice is
// left untouched.
func Shuffle[T any](r *SeededRNG, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := r.NextInt(0, i+1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
