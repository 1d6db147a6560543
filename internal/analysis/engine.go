// Package analysis implements the three settlement-pattern engines:
// spot preference, intra-specific attraction and inter-specific
// attraction. Each engine walks the same phase sequence - load and
// merge plate records, derive observed values, repeat null-model
// regeneration with significance voting, compute final tests, produce a
// report - and checks a cooperative stop flag at every phase boundary.
package analysis

import (
	"context"
	"fmt"
	"sync/atomic"

	mstats "github.com/montanaflynn/stats"

	"gosetl/adapters/stats"
	"gosetl/domain/core"
	"gosetl/domain/report"
	"gosetl/internal"
	"gosetl/ports"
)

// State tracks an engine's progress through its phase sequence.
type State int

const (
	StateInitialized State = iota
	StateDataLoaded
	StateObservedComputed
	StateRepeating
	StateSignificanceComputed
	StateReportGenerated
	StateDone
	StateAborted
	StateNoData
)

// String renders the state for logs.
func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateDataLoaded:
		return "data_loaded"
	case StateObservedComputed:
		return "observed_computed"
	case StateRepeating:
		return "repeating"
	case StateSignificanceComputed:
		return "significance_computed"
	case StateReportGenerated:
		return "report_generated"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	case StateNoData:
		return "no_data"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config carries the run parameters common to all engines.
type Config struct {
	// Alpha is the significance level, in (0,1).
	Alpha float64
	// Repeats is the number of null-model regenerations, at least 1.
	Repeats int
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("%w: %g", core.ErrInvalidAlpha, c.Alpha)
	}
	if c.Repeats < 1 {
		return fmt.Errorf("repeats must be at least 1, got %d", c.Repeats)
	}
	return nil
}

// FixedSteps is the number of progress events an engine emits besides
// its repeat iterations, so callers can precompute a run's total as
// FixedSteps + Config.Repeats.
const FixedSteps = 4

// engine holds the collaborators and phase state shared by the three
// analyses. The record store is read-only from the engine's view; its
// lifecycle belongs to whoever opened it.
type engine struct {
	cfg      Config
	store    ports.RecordStore
	sampler  ports.SpotSampler
	progress ports.ProgressSink
	log      *internal.Logger
	state    State
	stop     atomic.Bool
}

func newEngine(store ports.RecordStore, sampler ports.SpotSampler, cfg Config) engine {
	return engine{
		cfg:      cfg,
		store:    store,
		sampler:  sampler,
		progress: ports.NopProgress{},
		log:      internal.DefaultLogger,
		state:    StateInitialized,
	}
}

// SetProgress installs a progress sink; the default discards events.
func (e *engine) SetProgress(sink ports.ProgressSink) {
	if sink != nil {
		e.progress = sink
	}
}

// SetLogger replaces the default logger.
func (e *engine) SetLogger(log *internal.Logger) {
	if log != nil {
		e.log = log
	}
}

// Cancel requests cooperative cancellation. The engine aborts at the
// next phase boundary without producing a report.
func (e *engine) Cancel() {
	e.stop.Store(true)
}

// State returns the engine's current phase.
func (e *engine) State() State {
	return e.state
}

// enter transitions to the next phase, aborting first if cancellation
// was requested via Cancel or the context.
func (e *engine) enter(ctx context.Context, next State) error {
	if e.stop.Load() || ctx.Err() != nil {
		e.state = StateAborted
		return core.ErrCancelled
	}
	e.state = next
	return nil
}

// voteCounter accumulates per-group significance votes over repeats.
type voteCounter struct {
	significant int
	attraction  int
	repulsion   int
}

// tally counts one repeat's test outcome. attractionWhenLower selects
// the direction semantics: distance engines count an observed mean
// below the expected mean as attraction, spot preference counts an
// observed mean above the expected mean as preference (stored in the
// attraction tally).
func (v *voteCounter) tally(out stats.WilcoxonOutcome, alpha float64, attractionWhenLower bool) {
	sig, err := stats.IsSignificant(out.PValue, alpha)
	if err != nil {
		// Degenerate p-value: counts as not significant.
		sig = false
	}
	if !sig {
		return
	}
	v.significant++
	diff := out.MeanObserved - out.MeanExpected
	if !attractionWhenLower {
		diff = -diff
	}
	switch {
	case diff < 0:
		v.attraction++
	case diff > 0:
		v.repulsion++
	}
}

// repeatResult assembles the vote tallies into a report record.
func (v voteCounter) repeatResult(nPlates, nValues, repeats int, last stats.WilcoxonOutcome) report.WilcoxonRepeatResult {
	return report.WilcoxonRepeatResult{
		NPlates:      nPlates,
		NValues:      nValues,
		Repeats:      repeats,
		NSignificant: v.significant,
		NAttraction:  v.attraction,
		NRepulsion:   v.repulsion,
		MeanObserved: last.MeanObserved,
		MeanExpected: last.MeanExpected,
	}
}

// mean averages a sequence, returning 0 for an empty one.
func mean(values []float64) float64 {
	m, err := mstats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// wilcoxonResult assembles a final non-repeated test into a report
// record.
func wilcoxonResult(nPlates int, out stats.WilcoxonOutcome, nValues int) report.WilcoxonResult {
	return report.WilcoxonResult{
		NPlates:      nPlates,
		NValues:      nValues,
		PValue:       out.PValue,
		Statistic:    out.Statistic,
		MeanObserved: out.MeanObserved,
		MeanExpected: out.MeanExpected,
		Method:       out.Method,
	}
}
