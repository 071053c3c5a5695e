package worker

import "math/rand"

// ShuffleRNG is the single seeded RNG used for host-list shuffling (§4.6,
// §9 Design Notes: "one seeded RNG per run for host shuffling; not shared
// with guest code"). Grounded on the teacher's sim.PartitionedRNG, reduced
// to the single subsystem the driver itself needs.
type ShuffleRNG struct {
	r *rand.Rand
}

// NewShuffleRNG derives a shuffle RNG from the run's master seed.
func NewShuffleRNG(seed int64) *ShuffleRNG {
	return &ShuffleRNG{r: rand.New(rand.NewSource(seed))}
}

// Shuffle permutes n elements in place via swap, using the Fisher-Yates
// shuffle driven by this RNG, so the same seed always produces the same
// permutation (§4.3: "hosts are shuffled once, deterministically from a
// seeded RNG, before assignment").
func (rng *ShuffleRNG) Shuffle(n int, swap func(i, j int)) {
	rng.r.Shuffle(n, swap)
}
