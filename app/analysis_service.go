package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"gosetl/domain/core"
	"gosetl/domain/plate"
	"gosetl/domain/report"
	"gosetl/internal"
	"gosetl/internal/analysis"
	"gosetl/internal/errors"
	"gosetl/internal/nullmodel"
	"gosetl/ports"
)

// AnalysisService runs single analyses and keeps the finished reports
// addressable by ID.
type AnalysisService struct {
	store    ports.RecordStore
	cfg      analysis.Config
	log      *internal.Logger
	seed     int64
	seeded   bool
	mu       sync.RWMutex
	reports  map[core.ReportID]*report.Report
	runIndex map[core.ReportID]RunInfo
}

// RunInfo holds the bookkeeping of one run.
type RunInfo struct {
	Kind      report.Analysis `json:"kind"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
}

// RunRequest describes one analysis invocation.
type RunRequest struct {
	Kind       report.Analysis      `json:"kind"`
	Selections []report.Selection   `json:"selections"`
	Areas      plate.AreaDefinition `json:"areas"`
}

// NewAnalysisService creates a service over an open record store. The
// caller owns the store's lifecycle.
func NewAnalysisService(store ports.RecordStore, cfg analysis.Config) *AnalysisService {
	return &AnalysisService{
		store:    store,
		cfg:      cfg,
		log:      internal.DefaultLogger,
		reports:  make(map[core.ReportID]*report.Report),
		runIndex: make(map[core.ReportID]RunInfo),
	}
}

// SetLogger replaces the default logger.
func (s *AnalysisService) SetLogger(log *internal.Logger) {
	if log != nil {
		s.log = log
	}
}

// SetSeed makes the null-model sampler deterministic.
func (s *AnalysisService) SetSeed(seed int64) {
	s.seed = seed
	s.seeded = true
}

// Run executes one analysis and stores the finished report.
func (s *AnalysisService) Run(ctx context.Context, req RunRequest) (*report.Report, error) {
	started := time.Now()
	rep, err := s.execute(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.reports[rep.ID] = rep
	s.runIndex[rep.ID] = RunInfo{Kind: req.Kind, StartedAt: started, EndedAt: time.Now()}
	s.mu.Unlock()

	s.log.Info("analysis %s finished: report %s, %d plates", req.Kind, rep.ID, rep.NPlates)
	return rep, nil
}

func (s *AnalysisService) execute(ctx context.Context, req RunRequest) (*report.Report, error) {
	sampler := s.sampler()
	switch req.Kind {
	case report.AnalysisSpotPreference:
		if len(req.Selections) != 1 {
			return nil, errors.InvalidInput("spot preference takes exactly one selection")
		}
		eng := analysis.NewSpotPreference(s.store, sampler, s.cfg)
		eng.SetLogger(s.log)
		return eng.Run(ctx, analysis.SpotPreferenceRequest{Selection: req.Selections[0], Areas: req.Areas})

	case report.AnalysisIntraSpecific:
		if len(req.Selections) != 1 {
			return nil, errors.InvalidInput("intra-specific attraction takes exactly one selection")
		}
		eng := analysis.NewIntraSpecific(s.store, sampler, s.cfg)
		eng.SetLogger(s.log)
		return eng.Run(ctx, analysis.IntraSpecificRequest{Selection: req.Selections[0]})

	case report.AnalysisInterSpecific:
		if len(req.Selections) != 2 {
			return nil, errors.InvalidInput("inter-specific attraction takes exactly two selections")
		}
		eng := analysis.NewInterSpecific(s.store, sampler, s.cfg)
		eng.SetLogger(s.log)
		return eng.Run(ctx, analysis.InterSpecificRequest{
			SelectionA: req.Selections[0],
			SelectionB: req.Selections[1],
		})

	default:
		return nil, errors.InvalidInput("unknown analysis kind")
	}
}

func (s *AnalysisService) sampler() ports.SpotSampler {
	if s.seeded {
		return nullmodel.NewUniform(s.seed)
	}
	return nullmodel.New()
}

// Report returns a stored report by ID.
func (s *AnalysisService) Report(id core.ReportID) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reports[id]
	if !ok {
		return nil, errors.NotFound("report " + string(id))
	}
	return rep, nil
}

// Reports lists all stored reports with their run info, newest first.
func (s *AnalysisService) Reports() []ReportEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ReportEntry, 0, len(s.reports))
	for id, rep := range s.reports {
		out = append(out, ReportEntry{Report: rep, Info: s.runIndex[id]})
	}
	sortEntries(out)
	return out
}

// ReportEntry pairs a report with its run bookkeeping.
type ReportEntry struct {
	Report *report.Report `json:"report"`
	Info   RunInfo        `json:"info"`
}

func sortEntries(entries []ReportEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Info.StartedAt.After(entries[j].Info.StartedAt)
	})
}
