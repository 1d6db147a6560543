package analysis

import (
	"context"

	"gosetl/adapters/stats"
	"gosetl/domain/core"
	"gosetl/domain/plate"
	"gosetl/domain/report"
	"gosetl/internal/errors"
	"gosetl/ports"
)

// SpotPreferenceRequest selects the plates and the user area layout for
// one spot-preference run.
type SpotPreferenceRequest struct {
	Selection report.Selection
	// Areas is the user-defined grouping of the canonical areas; the
	// zero value falls back to one user area per canonical area.
	Areas plate.AreaDefinition
}

// SpotPreference tests whether a species prefers or rejects plate
// areas: observed per-area positive-spot counts are compared against
// repeatedly regenerated random placements.
type SpotPreference struct {
	engine
}

// NewSpotPreference creates the engine. The record store is used
// read-only; the caller keeps ownership of its lifecycle.
func NewSpotPreference(store ports.RecordStore, sampler ports.SpotSampler, cfg Config) *SpotPreference {
	return &SpotPreference{engine: newEngine(store, sampler, cfg)}
}

// platePreference caches one plate's canonical-area breakdown.
type platePreference struct {
	id     plate.PlateID
	combos []float64 // observed count per preference combo
	total  int
}

// Run executes the full spot-preference pipeline and returns the
// finalized report. It returns core.ErrNoData when the selection has no
// positive spots at all, and core.ErrCancelled on cooperative abort.
func (e *SpotPreference) Run(ctx context.Context, req SpotPreferenceRequest) (*report.Report, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	areas := req.Areas
	if len(areas.Names) == 0 {
		areas = plate.DefaultAreaDefinition()
	}
	if err := areas.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}

	// Phase 1: load and merge plate records.
	records, err := e.store.PlateRecords(ctx, req.Selection.Locations, req.Selection.Species)
	if err != nil {
		return nil, errors.StoreError("loading plate records", err)
	}
	table := plate.MergeRecords(records)
	if err := e.enter(ctx, StateDataLoaded); err != nil {
		return nil, err
	}
	e.progress.AdvanceMsg("plate records loaded")
	e.log.Debug("spot preference: %d plates after merge", len(table))

	// Phase 2: observed per-combo counts.
	plates := make([]platePreference, 0, len(table))
	grandTotal := 0
	for _, id := range table.PlateIDs() {
		rec := table[id]
		combos := make([]float64, len(plate.PreferenceCombos))
		for i, combo := range plate.PreferenceCombos {
			n, err := plate.AreaTotal(rec, combo...)
			if err != nil {
				return nil, err
			}
			combos[i] = float64(n)
		}
		total := rec.PositiveCount()
		grandTotal += total
		plates = append(plates, platePreference{id: id, combos: combos, total: total})
	}
	if err := e.enter(ctx, StateObservedComputed); err != nil {
		return nil, err
	}
	e.progress.AdvanceMsg("observed area totals computed")

	if grandTotal == 0 {
		e.state = StateNoData
		return nil, errors.WithCode(errors.CodeNoData, core.ErrNoData)
	}

	observed := make([][]float64, len(plate.PreferenceCombos))
	for i := range observed {
		observed[i] = make([]float64, len(plates))
		for p, pp := range plates {
			observed[i][p] = pp.combos[i]
		}
	}

	// Phase 3: repeated null-model regeneration with significance votes.
	votes := make([]voteCounter, len(plate.PreferenceCombos))
	lastOutcome := make([]stats.WilcoxonOutcome, len(plate.PreferenceCombos))
	var lastExpected [][]float64
	for rep := 0; rep < e.cfg.Repeats; rep++ {
		if err := e.enter(ctx, StateRepeating); err != nil {
			return nil, err
		}
		expected, err := e.expectedCounts(plates)
		if err != nil {
			return nil, err
		}
		for i := range plate.PreferenceCombos {
			if len(observed[i]) < 2 {
				continue
			}
			out, err := stats.RankSum(observed[i], expected[i])
			if err != nil {
				if core.IsSkippable(err) {
					continue
				}
				return nil, err
			}
			votes[i].tally(out, e.cfg.Alpha, false)
			lastOutcome[i] = out
		}
		lastExpected = expected
		e.progress.Advance()
	}

	// Phase 4: final non-repeated tests on the retained expected values.
	rep := report.New(report.AnalysisSpotPreference, []report.Selection{req.Selection})
	rep.SetOption("alpha_level", e.cfg.Alpha)
	rep.SetOption("repeats", e.cfg.Repeats)
	rep.NPlates = len(plates)

	for i, combo := range plate.PreferenceCombos {
		key := report.GroupKey(combo.Key())
		if len(observed[i]) < 2 {
			continue
		}
		rep.AddWilcoxonRepeat(key, votes[i].repeatResult(len(plates), len(observed[i]), e.cfg.Repeats, lastOutcome[i]))

		out, err := stats.RankSum(observed[i], lastExpected[i])
		if err != nil {
			if core.IsSkippable(err) {
				continue
			}
			return nil, err
		}
		rep.AddWilcoxon(key, wilcoxonResult(len(plates), out, len(observed[i])))
	}

	if chi, err := e.userAreaChiSquared(plates, areas); err == nil {
		rep.AddChiSquared(report.UserAreasKey, chi)
	} else if !core.IsSkippable(err) {
		return nil, err
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

// expectedCounts draws one null-model spot set per plate, matching its
// observed occupancy, and tallies per-combo counts.
func (e *SpotPreference) expectedCounts(plates []platePreference) ([][]float64, error) {
	expected := make([][]float64, len(plate.PreferenceCombos))
	for i := range expected {
		expected[i] = make([]float64, len(plates))
	}
	for p, pp := range plates {
		spots, err := e.sampler.RandomPositiveSpots(pp.total)
		if err != nil {
			return nil, err
		}
		var rec plate.Record
		for _, s := range spots {
			rec.Spots[s-1] = true
		}
		for i, combo := range plate.PreferenceCombos {
			n, err := plate.AreaTotal(rec, combo...)
			if err != nil {
				return nil, err
			}
			expected[i][p] = float64(n)
		}
	}
	return expected, nil
}

// userAreaChiSquared runs the single goodness-of-fit test across the
// user-defined areas, weighting expectations by each area's share of
// the 25 spots.
func (e *SpotPreference) userAreaChiSquared(plates []platePreference, areas plate.AreaDefinition) (report.ChiSquaredResult, error) {
	freqs := make([]float64, len(areas.Names))
	probs := make([]float64, len(areas.Names))
	nValues := 0
	for i, name := range areas.Names {
		group := areas.Groups[name]
		p, err := plate.AreaProbability(group...)
		if err != nil {
			return report.ChiSquaredResult{}, err
		}
		probs[i] = p

		for _, pp := range plates {
			// Recover the per-plate count for this user group from the
			// canonical singles, which are combos 0..3 in order A,B,C,D.
			for _, a := range group {
				freqs[i] += pp.combos[canonicalComboIndex(a)]
			}
		}
		nValues += int(freqs[i])
	}

	out, err := stats.GoodnessOfFit(freqs, probs)
	if err != nil {
		return report.ChiSquaredResult{}, err
	}
	return report.ChiSquaredResult{
		NPlates:       len(plates),
		NValues:       nValues,
		Statistic:     out.Statistic,
		PValue:        out.PValue,
		DF:            out.DF,
		MeanObserved:  mean(freqs),
		MeanExpected:  mean(out.ExpectedFreqs),
		ExpectedFreqs: out.ExpectedFreqs,
		LowExpected:   out.LowExpected,
	}, nil
}

// canonicalComboIndex maps a canonical area to its position among the
// single-area preference combos.
func canonicalComboIndex(a plate.Area) int {
	switch a {
	case plate.AreaA:
		return 0
	case plate.AreaB:
		return 1
	case plate.AreaC:
		return 2
	default:
		return 3
	}
}
