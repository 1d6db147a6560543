// Package stats provides the significance-test primitives the analysis
// engines run against their null models: an unpaired two-sided Wilcoxon
// rank-sum test and a chi-squared goodness-of-fit test. Behavior of the
// rank-sum test (continuity correction, tie handling) matches R's
// wilcox.test normal approximation and is pinned by gold-standard tests.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gosetl/domain/core"
)

// WilcoxonMethod names the implemented test variant.
const WilcoxonMethod = "Wilcoxon rank sum test with continuity correction"

// WilcoxonOutcome is the result of one rank-sum test.
type WilcoxonOutcome struct {
	Statistic    float64 // U for the first sample
	PValue       float64
	MeanObserved float64
	MeanExpected float64
	Method       string
}

// RankSum performs the unpaired two-sided Wilcoxon rank-sum
// (Mann-Whitney) test of observed against expected values, using the
// normal approximation with tie-corrected variance and a 0.5 continuity
// correction. Both sequences must be non-empty; the domain rule of at
// least two observed values is enforced by callers.
func RankSum(observed, expected []float64) (WilcoxonOutcome, error) {
	n1 := len(observed)
	n2 := len(expected)
	if n1 == 0 || n2 == 0 {
		return WilcoxonOutcome{}, core.ErrInsufficientData
	}

	type sample struct {
		value float64
		first bool
	}
	combined := make([]sample, 0, n1+n2)
	for _, v := range observed {
		combined = append(combined, sample{value: v, first: true})
	}
	for _, v := range expected {
		combined = append(combined, sample{value: v})
	}
	sort.Slice(combined, func(i, j int) bool {
		return combined[i].value < combined[j].value
	})

	// Tie-averaged ranks; collect tie group sizes for the variance
	// correction.
	n := len(combined)
	ranks := make([]float64, n)
	tieTerm := 0.0
	i := 0
	for i < n {
		j := i
		for j < n-1 && combined[j+1].value == combined[i].value {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[k] = avg
		}
		t := float64(j - i + 1)
		tieTerm += t*t*t - t
		i = j + 1
	}

	var r1 float64
	for k, s := range combined {
		if s.first {
			r1 += ranks[k]
		}
	}

	f1 := float64(n1)
	f2 := float64(n2)
	u := r1 - f1*(f1+1)/2
	mu := f1 * f2 / 2

	fn := float64(n)
	variance := f1 * f2 / 12 * ((fn + 1) - tieTerm/(fn*(fn-1)))
	sigma := math.Sqrt(variance)

	outcome := WilcoxonOutcome{
		Statistic:    u,
		MeanObserved: stat.Mean(observed, nil),
		MeanExpected: stat.Mean(expected, nil),
		Method:       WilcoxonMethod,
	}

	if sigma == 0 {
		// Every value tied across both samples: no evidence either way.
		outcome.PValue = 1
		return outcome, nil
	}

	// Continuity correction toward the mean.
	diff := u - mu
	switch {
	case diff > 0:
		diff -= 0.5
	case diff < 0:
		diff += 0.5
	}
	z := diff / sigma

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * normal.CDF(-math.Abs(z))
	if p > 1 {
		p = 1
	}
	outcome.PValue = p
	return outcome, nil
}
