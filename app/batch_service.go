package app

import (
	"context"
	"path/filepath"

	"gosetl/adapters/excel"
	"gosetl/adapters/export"
	"gosetl/domain/report"
	"gosetl/internal"
	"gosetl/internal/analysis"
	"gosetl/internal/batch"
	"gosetl/ports"
)

// BatchService runs whole-batch analyses over many species and writes
// the summary and report files.
type BatchService struct {
	store   ports.RecordStore
	cfg     analysis.Config
	workers int
	seed    int64
	seeded  bool
	log     *internal.Logger
}

// BatchRequest selects the species set and analysis kind for a batch.
type BatchRequest struct {
	Kind      report.Analysis
	Locations []string
	Species   []string
	// ExportDir receives per-report markdown/HTML files and the xlsx
	// summary; empty skips file output.
	ExportDir string
}

// BatchOutcome carries the batch results and where they were written.
type BatchOutcome struct {
	Results     []batch.Result
	PairSummary *analysis.PairSummary
	SpotSummary *analysis.SpotSummary
	SummaryPath string
}

// NewBatchService creates the service. The caller owns the store.
func NewBatchService(store ports.RecordStore, cfg analysis.Config, workers int) *BatchService {
	return &BatchService{
		store:   store,
		cfg:     cfg,
		workers: workers,
		log:     internal.DefaultLogger,
	}
}

// SetLogger replaces the default logger.
func (s *BatchService) SetLogger(log *internal.Logger) {
	if log != nil {
		s.log = log
	}
}

// SetSeed makes every job's sampler deterministic.
func (s *BatchService) SetSeed(seed int64) {
	s.seed = seed
	s.seeded = true
}

// Run executes the batch: one job per species (or species pair for the
// inter-specific kind), then the matching summarizer over the finished
// reports.
func (s *BatchService) Run(ctx context.Context, req BatchRequest) (*BatchOutcome, error) {
	jobs := s.jobsFor(req)
	s.log.Info("batch %s: %d jobs over %d species", req.Kind, len(jobs), len(req.Species))

	runner := batch.NewRunner(s.store, s.cfg, s.workers)
	runner.SetLogger(s.log)
	if s.seeded {
		runner.SetSeed(s.seed)
	}
	results := runner.Run(ctx, jobs)
	reports := batch.Reports(results)
	for _, res := range results {
		if res.Err != nil {
			s.log.Warn("batch job %s failed: %v", res.Job.ID, res.Err)
		}
	}

	outcome := &BatchOutcome{Results: results}
	if req.Kind == report.AnalysisSpotPreference {
		summary, err := analysis.SummarizeSpotPreference(reports, true)
		if err != nil {
			return nil, err
		}
		outcome.SpotSummary = &summary
	} else {
		summary, err := analysis.SummarizePairs(reports, true)
		if err != nil {
			return nil, err
		}
		outcome.PairSummary = &summary
	}

	if req.ExportDir != "" {
		if err := s.export(req, outcome, reports); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func (s *BatchService) jobsFor(req BatchRequest) []batch.Job {
	if req.Kind == report.AnalysisInterSpecific {
		return batch.PairJobs(req.Locations, req.Species)
	}
	return batch.SpeciesJobs(req.Kind, req.Locations, req.Species)
}

func (s *BatchService) export(req BatchRequest, outcome *BatchOutcome, reports []*report.Report) error {
	for _, rep := range reports {
		if _, _, err := export.WriteFiles(rep, req.ExportDir); err != nil {
			return err
		}
	}

	writer := excel.NewSummaryWriter()
	name := "summary"
	switch {
	case outcome.SpotSummary != nil:
		if err := writer.AddSpotSummary(name, *outcome.SpotSummary); err != nil {
			return err
		}
	case outcome.PairSummary != nil:
		if err := writer.AddPairSummary(name, *outcome.PairSummary); err != nil {
			return err
		}
	}
	path := filepath.Join(req.ExportDir, string(req.Kind)+"-summary.xlsx")
	if err := writer.Save(path); err != nil {
		return err
	}
	outcome.SummaryPath = path
	s.log.Info("batch summary written to %s", path)
	return nil
}
