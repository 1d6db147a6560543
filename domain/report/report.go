// Package report holds the typed results of one analysis run. A Report
// is accumulated by an engine while it runs and finalized once; after
// finalization it is a read-only value consumable for rendering, export
// or batch summarization without further computation.
package report

import (
	"fmt"

	"gosetl/domain/core"
)

// Analysis names the three engines.
type Analysis string

const (
	AnalysisSpotPreference Analysis = "spot_preference"
	AnalysisIntraSpecific  Analysis = "attraction_intra"
	AnalysisInterSpecific  Analysis = "attraction_inter"
)

// Selection echoes one species/locations selection of the run.
type Selection struct {
	Locations []string `json:"locations"`
	Species   []string `json:"species"`
}

// Label renders a selection for report headers.
func (s Selection) Label() string {
	if len(s.Species) == 1 {
		return s.Species[0]
	}
	return fmt.Sprintf("%v", s.Species)
}

// Report carries the complete outcome of one analysis run.
type Report struct {
	ID         core.ReportID   `json:"id"`
	Analysis   Analysis        `json:"analysis"`
	Options    map[string]any  `json:"options"`
	Selections []Selection     `json:"selections"`
	NPlates    int             `json:"n_plates"`

	Wilcoxon        map[GroupKey]WilcoxonResult       `json:"wilcoxon"`
	WilcoxonRepeats map[GroupKey]WilcoxonRepeatResult `json:"wilcoxon_repeats"`
	ChiSquared      map[GroupKey]ChiSquaredResult     `json:"chi_squared"`

	CreatedAt core.Timestamp `json:"created_at"`
	finalized bool
}

// New creates an empty report for an analysis run.
func New(analysis Analysis, selections []Selection) *Report {
	return &Report{
		ID:              core.ReportID(core.NewID()),
		Analysis:        analysis,
		Options:         make(map[string]any),
		Selections:      selections,
		Wilcoxon:        make(map[GroupKey]WilcoxonResult),
		WilcoxonRepeats: make(map[GroupKey]WilcoxonRepeatResult),
		ChiSquared:      make(map[GroupKey]ChiSquaredResult),
	}
}

// SetOption records a scalar run option (alpha level, repeats, ...).
func (r *Report) SetOption(key string, value any) error {
	if r.finalized {
		return core.ErrReportFinalized
	}
	r.Options[key] = value
	return nil
}

// AddWilcoxon records a non-repeated rank-sum result for a group.
func (r *Report) AddWilcoxon(group GroupKey, res WilcoxonResult) error {
	if r.finalized {
		return core.ErrReportFinalized
	}
	r.Wilcoxon[group] = res
	return nil
}

// AddWilcoxonRepeat records accumulated vote tallies for a group.
func (r *Report) AddWilcoxonRepeat(group GroupKey, res WilcoxonRepeatResult) error {
	if r.finalized {
		return core.ErrReportFinalized
	}
	r.WilcoxonRepeats[group] = res
	return nil
}

// AddChiSquared records a goodness-of-fit result for a group.
func (r *Report) AddChiSquared(group GroupKey, res ChiSquaredResult) error {
	if r.finalized {
		return core.ErrReportFinalized
	}
	r.ChiSquared[group] = res
	return nil
}

// Finalize freezes the report. Further mutation returns
// core.ErrReportFinalized.
func (r *Report) Finalize() {
	r.CreatedAt = core.Now()
	r.finalized = true
}

// Finalized reports whether the report has been frozen.
func (r *Report) Finalized() bool { return r.finalized }

// Alpha returns the run's alpha level option, defaulting to 0.05 when
// the option was never set.
func (r *Report) Alpha() float64 {
	if v, ok := r.Options["alpha_level"].(float64); ok {
		return v
	}
	return 0.05
}

// Repeats returns the run's repeat count option.
func (r *Report) Repeats() int {
	if v, ok := r.Options["repeats"].(int); ok {
		return v
	}
	return 0
}
