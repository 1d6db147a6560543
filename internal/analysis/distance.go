package analysis

import (
	"context"

	"gosetl/adapters/stats"
	"gosetl/domain/core"
	"gosetl/domain/plate"
	"gosetl/domain/ratio"
	"gosetl/domain/report"
)

// platePair is one plate's contribution to a distance analysis: its
// positive-spot counts (both counts equal for the intra-specific case),
// the derived observed distances and its ratio band.
type platePair struct {
	id        plate.PlateID
	nA, nB    int
	distances []float64
	band      ratio.Group
}

// groupMembers indexes plates by ratio group, Combined included.
func groupMembers(plates []platePair) map[ratio.Group][]int {
	members := make(map[ratio.Group][]int, len(ratio.All))
	for i, p := range plates {
		members[p.band] = append(members[p.band], i)
		members[ratio.Combined] = append(members[ratio.Combined], i)
	}
	return members
}

// pool concatenates the distance slices of the given plates.
func pool(plates []platePair, indices []int, pick func(platePair) []float64) []float64 {
	values := make([]float64, 0)
	for _, i := range indices {
		values = append(values, pick(plates[i])...)
	}
	return values
}

// runDistanceAnalysis drives phases 3..5 shared by the intra- and
// inter-specific engines: the repeat loop with significance voting, the
// final rank-sum and goodness-of-fit tests per ratio group, and report
// assembly. regen draws one fresh null-model distance set for a plate;
// includeZero selects the distance-class universe (cross pairing allows
// the same-spot distance 0, self pairing does not).
func runDistanceAnalysis(
	ctx context.Context,
	e *engine,
	analysis report.Analysis,
	selections []report.Selection,
	plates []platePair,
	regen func(platePair) ([]float64, error),
	includeZero bool,
) (*report.Report, error) {
	members := groupMembers(plates)
	observedOf := func(p platePair) []float64 { return p.distances }

	// Phase 3: repeated null-model regeneration with significance votes.
	votes := make(map[ratio.Group]*voteCounter, len(ratio.All))
	lastOutcome := make(map[ratio.Group]stats.WilcoxonOutcome, len(ratio.All))
	for _, g := range ratio.All {
		votes[g] = &voteCounter{}
	}
	lastExpected := make([][]float64, len(plates))

	for rep := 0; rep < e.cfg.Repeats; rep++ {
		if err := e.enter(ctx, StateRepeating); err != nil {
			return nil, err
		}
		for i := range plates {
			exp, err := regen(plates[i])
			if err != nil {
				return nil, err
			}
			lastExpected[i] = exp
		}
		for _, g := range ratio.All {
			obs := pool(plates, members[g], observedOf)
			if len(obs) < 2 {
				continue
			}
			exp := make([]float64, 0, len(obs))
			for _, i := range members[g] {
				exp = append(exp, lastExpected[i]...)
			}
			out, err := stats.RankSum(obs, exp)
			if err != nil {
				if core.IsSkippable(err) {
					continue
				}
				return nil, err
			}
			votes[g].tally(out, e.cfg.Alpha, true)
			lastOutcome[g] = out
		}
		e.progress.Advance()
	}

	// Phase 4: final tests on the retained expected values.
	rep := report.New(analysis, selections)
	rep.SetOption("alpha_level", e.cfg.Alpha)
	rep.SetOption("repeats", e.cfg.Repeats)
	rep.NPlates = len(plates)

	classes, classProbs := plate.DistanceClassProbabilities(includeZero)
	for _, g := range ratio.All {
		indices := members[g]
		obs := pool(plates, indices, observedOf)
		if len(obs) < 2 {
			continue
		}
		key := report.GroupKey(g.String())
		rep.AddWilcoxonRepeat(key, votes[g].repeatResult(len(indices), len(obs), e.cfg.Repeats, lastOutcome[g]))

		exp := make([]float64, 0, len(obs))
		for _, i := range indices {
			exp = append(exp, lastExpected[i]...)
		}
		out, err := stats.RankSum(obs, exp)
		if err != nil {
			if !core.IsSkippable(err) {
				return nil, err
			}
		} else {
			rep.AddWilcoxon(key, wilcoxonResult(len(indices), out, len(obs)))
		}

		freqs := plate.BinDistances(obs, classes)
		chi, err := stats.GoodnessOfFit(freqs, classProbs)
		if err != nil {
			if core.IsSkippable(err) {
				continue
			}
			return nil, err
		}
		rep.AddChiSquared(key, report.ChiSquaredResult{
			NPlates:       len(indices),
			NValues:       len(obs),
			Statistic:     chi.Statistic,
			PValue:        chi.PValue,
			DF:            chi.DF,
			MeanObserved:  mean(obs),
			MeanExpected:  mean(exp),
			ExpectedFreqs: chi.ExpectedFreqs,
			LowExpected:   chi.LowExpected,
		})
	}

	if err := e.enter(ctx, StateSignificanceComputed); err != nil {
		return nil, err
	}
	e.progress.AdvanceMsg("significance computed")

	// Phase 5: finalize.
	rep.Finalize()
	if err := e.enter(ctx, StateReportGenerated); err != nil {
		return nil, err
	}
	e.progress.AdvanceMsg("report generated")
	e.state = StateDone
	return rep, nil
}
