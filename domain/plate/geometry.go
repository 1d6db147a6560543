package plate

import (
	"math"
	"sort"

	"gosetl/domain/core"
)

// SpotPair is an (a, b) pairing of positive spots used for distance
// calculation. For cross-selection pairs a comes from the first record
// and b from the second; for self pairs a < b.
type SpotPair struct {
	A, B int
}

// SpotCoord converts a spot number (1..25) to its one-based (row, col)
// grid position.
func SpotCoord(spot int) (row, col int, err error) {
	if spot < 1 || spot > GridSpots {
		return 0, 0, core.NewSpotError(spot)
	}
	return (spot-1)/GridSide + 1, (spot-1)%GridSide + 1, nil
}

// Distance returns the Euclidean norm of horizontal and vertical grid
// offsets.
func Distance(h, v int) float64 {
	return math.Sqrt(float64(h*h + v*v))
}

// SpotPositionDifference returns the absolute row and column offsets
// between two spots.
func SpotPositionDifference(spot1, spot2 int) (h, v int, err error) {
	r1, c1, err := SpotCoord(spot1)
	if err != nil {
		return 0, 0, err
	}
	r2, c2, err := SpotCoord(spot2)
	if err != nil {
		return 0, 0, err
	}
	h = r1 - r2
	if h < 0 {
		h = -h
	}
	v = c1 - c2
	if v < 0 {
		v = -v
	}
	return h, v, nil
}

// SpotDistance returns the Euclidean distance between two spots on the
// grid.
func SpotDistance(spot1, spot2 int) (float64, error) {
	h, v, err := SpotPositionDifference(spot1, spot2)
	if err != nil {
		return 0, err
	}
	return Distance(h, v), nil
}

// CrossPairs returns the cartesian product of the positive spots of two
// records, one spot from each. Pairing a spot with itself is allowed:
// two species can settle on the same spot of the same plate.
func CrossPairs(r1, r2 Record) []SpotPair {
	s1 := r1.PositiveSpots()
	s2 := r2.PositiveSpots()
	pairs := make([]SpotPair, 0, len(s1)*len(s2))
	for _, a := range s1 {
		for _, b := range s2 {
			pairs = append(pairs, SpotPair{A: a, B: b})
		}
	}
	return pairs
}

// SelfPairs returns every unordered pair of distinct positive spots
// within a single record, each pair once.
func SelfPairs(r Record) []SpotPair {
	spots := r.PositiveSpots()
	n := len(spots)
	pairs := make([]SpotPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, SpotPair{A: spots[i], B: spots[j]})
		}
	}
	return pairs
}

// PairDistances maps spot pairs to their grid distances.
func PairDistances(pairs []SpotPair) ([]float64, error) {
	distances := make([]float64, len(pairs))
	for i, p := range pairs {
		d, err := SpotDistance(p.A, p.B)
		if err != nil {
			return nil, err
		}
		distances[i] = d
	}
	return distances, nil
}

// CrossSpotDistances returns the distances of every (a, b) spot pairing
// across two spot sets, same-spot pairs included.
func CrossSpotDistances(spotsA, spotsB []int) ([]float64, error) {
	distances := make([]float64, 0, len(spotsA)*len(spotsB))
	for _, a := range spotsA {
		for _, b := range spotsB {
			d, err := SpotDistance(a, b)
			if err != nil {
				return nil, err
			}
			distances = append(distances, d)
		}
	}
	return distances, nil
}

// SelfSpotDistances returns the distances of every unordered pair of
// distinct spots within one spot set.
func SelfSpotDistances(spots []int) ([]float64, error) {
	n := len(spots)
	distances := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := SpotDistance(spots[i], spots[j])
			if err != nil {
				return nil, err
			}
			distances = append(distances, d)
		}
	}
	return distances, nil
}

// DistanceClasses enumerates the distinct distances possible between
// grid spots, ascending. With includeZero the same-spot distance 0 is
// part of the set (cross-selection pairing); without it only distinct
// spot pairs count (self pairing).
func DistanceClasses(includeZero bool) []float64 {
	seen := make(map[float64]struct{})
	for h := 0; h < GridSide; h++ {
		for v := 0; v < GridSide; v++ {
			if h == 0 && v == 0 && !includeZero {
				continue
			}
			seen[Distance(h, v)] = struct{}{}
		}
	}
	classes := make([]float64, 0, len(seen))
	for d := range seen {
		classes = append(classes, d)
	}
	sort.Float64s(classes)
	return classes
}

// DistanceClassProbabilities returns the exact null-model probability of
// each distance class under uniform spot placement: every spot pair is
// equally likely, so a class's probability is its share of all possible
// pairs. Cross pairing counts ordered pairs including same-spot (625);
// self pairing counts unordered distinct pairs (300).
func DistanceClassProbabilities(includeZero bool) ([]float64, []float64) {
	classes := DistanceClasses(includeZero)
	index := make(map[float64]int, len(classes))
	for i, d := range classes {
		index[d] = i
	}
	counts := make([]float64, len(classes))
	total := 0.0
	for a := 1; a <= GridSpots; a++ {
		for b := 1; b <= GridSpots; b++ {
			if includeZero {
				d, _ := SpotDistance(a, b)
				counts[index[d]]++
				total++
			} else if a < b {
				d, _ := SpotDistance(a, b)
				counts[index[d]]++
				total++
			}
		}
	}
	probs := make([]float64, len(classes))
	for i, c := range counts {
		probs[i] = c / total
	}
	return classes, probs
}

// BinDistances counts distances per distance class. Distances are
// matched to classes with a small tolerance to absorb float noise.
func BinDistances(distances []float64, classes []float64) []float64 {
	const eps = 1e-9
	freqs := make([]float64, len(classes))
	for _, d := range distances {
		for i, c := range classes {
			if math.Abs(d-c) < eps {
				freqs[i]++
				break
			}
		}
	}
	return freqs
}
