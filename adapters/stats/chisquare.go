package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gosetl/domain/core"
)

// probTolerance is the allowed deviation of the expected probabilities
// from summing to exactly 1.
const probTolerance = 1e-9

// lowExpectedThreshold is the classic minimum expected frequency below
// which a chi-squared approximation is considered unreliable.
const lowExpectedThreshold = 5

// ChiSquaredOutcome is the result of one goodness-of-fit test.
type ChiSquaredOutcome struct {
	Statistic     float64
	PValue        float64
	DF            int
	ExpectedFreqs []float64
	LowExpected   bool
}

// GoodnessOfFit tests observed frequencies against expected class
// probabilities, which must sum to 1. Expected frequencies below 5 set
// LowExpected on the outcome; acting on the flag is display policy, not
// an error.
func GoodnessOfFit(observedFreqs, expectedProbs []float64) (ChiSquaredOutcome, error) {
	if len(observedFreqs) != len(expectedProbs) {
		return ChiSquaredOutcome{}, fmt.Errorf("%w: %d observed vs %d probabilities",
			core.ErrLengthMismatch, len(observedFreqs), len(expectedProbs))
	}
	if len(observedFreqs) < 2 {
		return ChiSquaredOutcome{}, core.ErrInsufficientData
	}

	var probSum float64
	for _, p := range expectedProbs {
		probSum += p
	}
	if math.Abs(probSum-1) > probTolerance {
		return ChiSquaredOutcome{}, fmt.Errorf("%w: sum %.12f", core.ErrProbabilitySum, probSum)
	}

	var total float64
	for _, f := range observedFreqs {
		total += f
	}
	if total == 0 {
		// All-zero frequencies have no distribution to test.
		return ChiSquaredOutcome{}, core.ErrDegenerateProbability
	}

	expected := make([]float64, len(expectedProbs))
	statistic := 0.0
	lowExpected := false
	for i, p := range expectedProbs {
		e := p * total
		expected[i] = e
		if e < lowExpectedThreshold {
			lowExpected = true
		}
		if e > 0 {
			d := observedFreqs[i] - e
			statistic += d * d / e
		}
	}

	df := len(observedFreqs) - 1
	dist := distuv.ChiSquared{K: float64(df)}
	p := dist.Survival(statistic)

	return ChiSquaredOutcome{
		Statistic:     statistic,
		PValue:        p,
		DF:            df,
		ExpectedFreqs: expected,
		LowExpected:   lowExpected,
	}, nil
}
