package fixture

import "math/rand/v2"

// Source is the randomness a Generator draws from. *rand.Rand satisfies it.
type Source interface {
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64
}

// pcgStream is the fixed second PCG word; only the seed varies between runs.
const pcgStream = 0x9e3779b97f4a7c15

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, pcgStream))
}

// RandomSeed picks a seed from the runtime's random state so an unseeded run
// can still be replayed once the seed is logged.
func RandomSeed() uint64 {
	return rand.Uint64()
}
