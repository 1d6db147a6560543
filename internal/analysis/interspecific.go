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

// InterSpecificRequest selects the two species whose mutual attraction
// is tested. Only plates present in both selections are compared.
type InterSpecificRequest struct {
	SelectionA report.Selection
	SelectionB report.Selection
}

// InterSpecific tests whether two species attract or repel each other:
// observed distances between their positive spots on shared plates are
// compared against independent random placements of the same
// occupancies.
type InterSpecific struct {
	engine
}

// NewInterSpecific creates the engine.
func NewInterSpecific(store ports.RecordStore, sampler ports.SpotSampler, cfg Config) *InterSpecific {
	return &InterSpecific{engine: newEngine(store, sampler, cfg)}
}

// Run executes the inter-specific pipeline over the inner join of the
// two selections' plates.
func (e *InterSpecific) Run(ctx context.Context, req InterSpecificRequest) (*report.Report, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}

	// Phase 1: load and merge both selections.
	recordsA, err := e.store.PlateRecords(ctx, req.SelectionA.Locations, req.SelectionA.Species)
	if err != nil {
		return nil, errors.StoreError("loading first selection", err)
	}
	recordsB, err := e.store.PlateRecords(ctx, req.SelectionB.Locations, req.SelectionB.Species)
	if err != nil {
		return nil, errors.StoreError("loading second selection", err)
	}
	tableA := plate.MergeRecords(recordsA)
	tableB := plate.MergeRecords(recordsB)
	if err := e.enter(ctx, StateDataLoaded); err != nil {
		return nil, err
	}
	e.progress.AdvanceMsg("plate records loaded")

	// Phase 2: observed cross-selection distances on matched plates.
	matched := plate.MatchedPlates(tableA, tableB)
	plates := make([]platePair, 0, len(matched))
	for _, id := range matched {
		recA := tableA[id]
		recB := tableB[id]
		nA := recA.PositiveCount()
		nB := recB.PositiveCount()
		if nA == 0 || nB == 0 {
			continue
		}
		band, ok, err := ratio.GroupFor(nA, nB)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		distances, err := plate.PairDistances(plate.CrossPairs(recA, recB))
		if err != nil {
			return nil, err
		}
		plates = append(plates, platePair{id: id, nA: nA, nB: nB, distances: distances, band: band})
	}
	if err := e.enter(ctx, StateObservedComputed); err != nil {
		return nil, err
	}
	e.progress.AdvanceMsg("observed distances computed")
	e.log.Debug("inter-specific: %d matched plates", len(plates))

	if len(plates) == 0 {
		e.state = StateNoData
		return nil, errors.WithCode(errors.CodeNoData, core.ErrNoData)
	}

	regen := func(p platePair) ([]float64, error) {
		spotsA, err := e.sampler.RandomPositiveSpots(p.nA)
		if err != nil {
			return nil, err
		}
		spotsB, err := e.sampler.RandomPositiveSpots(p.nB)
		if err != nil {
			return nil, err
		}
		return plate.CrossSpotDistances(spotsA, spotsB)
	}
	return runDistanceAnalysis(ctx, &e.engine, report.AnalysisInterSpecific,
		[]report.Selection{req.SelectionA, req.SelectionB}, plates, regen, true)
}
