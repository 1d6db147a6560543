package analysis

import (
	"context"

	"gosetl/domain/core"
	"gosetl/domain/plate"
	"gosetl/domain/ratio"
	"gosetl/domain/report"
	"gosetl/internal/errors"
	"gosetl/ports"
)

// IntraSpecificRequest selects the single species whose self-attraction
// is tested.
type IntraSpecificRequest struct {
	Selection report.Selection
}

// IntraSpecific tests whether individuals of one species attract or
// repel each other within a plate: observed distances between pairs of
// the species' own positive spots are compared against random
// placements of the same occupancy.
type IntraSpecific struct {
	engine
}

// NewIntraSpecific creates the engine.
func NewIntraSpecific(store ports.RecordStore, sampler ports.SpotSampler, cfg Config) *IntraSpecific {
	return &IntraSpecific{engine: newEngine(store, sampler, cfg)}
}

// Run executes the intra-specific pipeline. Plates with fewer than two
// positive spots carry no pair and are skipped; the fully covered 25:25
// plate falls outside every ratio group and is skipped as well.
func (e *IntraSpecific) Run(ctx context.Context, req IntraSpecificRequest) (*report.Report, error) {
	if err := e.cfg.Validate(); err != nil {
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

	// Phase 2: observed intra-plate distances.
	plates := make([]platePair, 0, len(table))
	for _, id := range table.PlateIDs() {
		rec := table[id]
		n := rec.PositiveCount()
		if n < 2 {
			continue
		}
		band, ok, err := ratio.GroupFor(n, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		distances, err := plate.PairDistances(plate.SelfPairs(rec))
		if err != nil {
			return nil, err
		}
		plates = append(plates, platePair{id: id, nA: n, nB: n, distances: distances, band: band})
	}
	if err := e.enter(ctx, StateObservedComputed); err != nil {
		return nil, err
	}
	e.progress.AdvanceMsg("observed distances computed")
	e.log.Debug("intra-specific: %d plates with at least one spot pair", len(plates))

	if len(plates) == 0 {
		e.state = StateNoData
		return nil, errors.WithCode(errors.CodeNoData, core.ErrNoData)
	}

	regen := func(p platePair) ([]float64, error) {
		spots, err := e.sampler.RandomPositiveSpots(p.nA)
		if err != nil {
			return nil, err
		}
		return plate.SelfSpotDistances(spots)
	}
	return runDistanceAnalysis(ctx, &e.engine, report.AnalysisIntraSpecific,
		[]report.Selection{req.Selection}, plates, regen, false)
}
