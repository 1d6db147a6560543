// Package batch executes many analysis runs concurrently, one engine
// per job, and feeds the finished reports into the summarizers.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gosetl/domain/plate"
	"gosetl/domain/report"
	"gosetl/internal"
	"gosetl/internal/analysis"
	"gosetl/internal/errors"
	"gosetl/internal/nullmodel"
	"gosetl/ports"
)

// Job is one analysis to run. Selections carries one entry for spot
// preference and intra-specific runs, two for inter-specific runs.
type Job struct {
	ID         string
	Kind       report.Analysis
	Selections []report.Selection
	// Areas applies to spot-preference jobs only; the zero value uses
	// the default one-user-area-per-canonical-area layout.
	Areas plate.AreaDefinition
}

// Result holds one job's outcome. Report is nil when Err is set.
type Result struct {
	Job       Job
	Report    *report.Report
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Runner fans jobs out over a bounded worker pool. Each job gets its
// own engine and its own sampler; the record store is shared read-only
// and stays open across the whole batch.
type Runner struct {
	store    ports.RecordStore
	cfg      analysis.Config
	workers  int
	progress ports.ProgressSink
	log      *internal.Logger
	seed     int64
	seeded   bool
}

// NewRunner creates a runner with the given worker limit (minimum 1).
func NewRunner(store ports.RecordStore, cfg analysis.Config, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		store:    store,
		cfg:      cfg,
		workers:  workers,
		progress: ports.NopProgress{},
		log:      internal.DefaultLogger,
	}
}

// SetProgress installs a shared progress sink. A batch emits
// len(jobs) * (analysis.FixedSteps + Config.Repeats) events in total.
func (r *Runner) SetProgress(sink ports.ProgressSink) {
	if sink != nil {
		r.progress = sink
	}
}

// SetLogger replaces the default logger.
func (r *Runner) SetLogger(log *internal.Logger) {
	if log != nil {
		r.log = log
	}
}

// SetSeed makes every job's sampler deterministic: job i uses seed+i.
func (r *Runner) SetSeed(seed int64) {
	r.seed = seed
	r.seeded = true
}

// Run executes all jobs and returns one result per job, in job order.
// A failed or panicked job yields a Result with Err set; the batch
// itself only stops when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	sem := semaphore.NewWeighted(int64(r.workers))
	var wg sync.WaitGroup

	for i := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(jobs); j++ {
				results[j] = Result{Job: jobs[j], Err: errors.WithCode(errors.CodeCancelled, err)}
			}
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = r.runJob(ctx, jobs[i], i)
		}(i)
	}

	wg.Wait()
	return results
}

func (r *Runner) runJob(ctx context.Context, job Job, index int) (res Result) {
	res.Job = job
	res.StartedAt = time.Now()
	defer func() {
		res.EndedAt = time.Now()
		if p := recover(); p != nil {
			res.Report = nil
			res.Err = errors.InternalError(fmt.Sprintf("job %s panicked: %v", job.ID, p))
			r.log.Error("batch job %s panicked: %v", job.ID, p)
		}
	}()

	sampler := r.samplerFor(index)
	rep, err := r.dispatch(ctx, job, sampler)
	if err != nil {
		r.log.Warn("batch job %s (%s) failed: %v", job.ID, job.Kind, err)
		res.Err = err
		return res
	}
	res.Report = rep
	return res
}

func (r *Runner) samplerFor(index int) ports.SpotSampler {
	if r.seeded {
		return nullmodel.NewUniform(r.seed + int64(index))
	}
	return nullmodel.New()
}

func (r *Runner) dispatch(ctx context.Context, job Job, sampler ports.SpotSampler) (*report.Report, error) {
	switch job.Kind {
	case report.AnalysisSpotPreference:
		if len(job.Selections) != 1 {
			return nil, errors.InvalidInput("spot preference takes exactly one selection")
		}
		eng := analysis.NewSpotPreference(r.store, sampler, r.cfg)
		eng.SetProgress(r.progress)
		eng.SetLogger(r.log)
		return eng.Run(ctx, analysis.SpotPreferenceRequest{Selection: job.Selections[0], Areas: job.Areas})

	case report.AnalysisIntraSpecific:
		if len(job.Selections) != 1 {
			return nil, errors.InvalidInput("intra-specific attraction takes exactly one selection")
		}
		eng := analysis.NewIntraSpecific(r.store, sampler, r.cfg)
		eng.SetProgress(r.progress)
		eng.SetLogger(r.log)
		return eng.Run(ctx, analysis.IntraSpecificRequest{Selection: job.Selections[0]})

	case report.AnalysisInterSpecific:
		if len(job.Selections) != 2 {
			return nil, errors.InvalidInput("inter-specific attraction takes exactly two selections")
		}
		eng := analysis.NewInterSpecific(r.store, sampler, r.cfg)
		eng.SetProgress(r.progress)
		eng.SetLogger(r.log)
		return eng.Run(ctx, analysis.InterSpecificRequest{
			SelectionA: job.Selections[0],
			SelectionB: job.Selections[1],
		})

	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown analysis kind %q", job.Kind))
	}
}

// Reports extracts the successful reports of a batch, preserving order.
func Reports(results []Result) []*report.Report {
	out := make([]*report.Report, 0, len(results))
	for _, res := range results {
		if res.Err == nil && res.Report != nil {
			out = append(out, res.Report)
		}
	}
	return out
}

// PairJobs builds one inter-specific job per unordered species pair.
func PairJobs(locations []string, species []string) []Job {
	var jobs []Job
	for i := 0; i < len(species); i++ {
		for j := i + 1; j < len(species); j++ {
			jobs = append(jobs, Job{
				ID:   fmt.Sprintf("inter-%s-vs-%s", species[i], species[j]),
				Kind: report.AnalysisInterSpecific,
				Selections: []report.Selection{
					{Locations: locations, Species: []string{species[i]}},
					{Locations: locations, Species: []string{species[j]}},
				},
			})
		}
	}
	return jobs
}

// SpeciesJobs builds one job of the given kind per species.
func SpeciesJobs(kind report.Analysis, locations []string, species []string) []Job {
	jobs := make([]Job, 0, len(species))
	for _, sp := range species {
		jobs = append(jobs, Job{
			ID:   fmt.Sprintf("%s-%s", kind, sp),
			Kind: kind,
			Selections: []report.Selection{
				{Locations: locations, Species: []string{sp}},
			},
		})
	}
	return jobs
}
