package ports

// SpotSampler generates null-model positive-spot sets. Implementations
// must draw independently across calls: no shared mutable generator
// state that would correlate plates or repeats.
type SpotSampler interface {
	// RandomPositiveSpots returns n distinct spot numbers in 1..25,
	// uniformly without replacement. n must be in 0..25; n == 0 yields
	// an empty set.
	RandomPositiveSpots(n int) ([]int, error)
}
