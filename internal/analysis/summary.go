package analysis

import (
	"fmt"
	"math"

	"gosetl/adapters/stats"
	"gosetl/domain/ratio"
	"gosetl/domain/report"
)

// Verdict codes one summarized test cell.
type Verdict string

const (
	VerdictNone       Verdict = "ns" // not significant
	VerdictAttraction Verdict = "at"
	VerdictRepulsion  Verdict = "rp"
)

// Preference codes for the spot-preference summary.
const (
	CodePreference     = "p"
	CodeRejection      = "r"
	CodeNotSignificant = "n"
)

// PairCell is one ratio group's verdicts inside a pair-summary row.
type PairCell struct {
	Wilcoxon  Verdict `json:"wilcoxon"`
	WilcoxonP float64 `json:"wilcoxon_p"`
	Chi       Verdict `json:"chi"`
	ChiStat   float64 `json:"chi_stat"`
	ChiP      float64 `json:"chi_p"`
}

// PairRow is one species pair of a batch summary. A row exists only
// when at least one of its cells is significant.
type PairRow struct {
	SpeciesA string                       `json:"species_a"`
	SpeciesB string                       `json:"species_b"`
	NPlates  int                          `json:"n_plates"`
	Cells    map[report.GroupKey]PairCell `json:"cells"`
}

// PairSummary merges many attraction reports into one matrix report.
type PairSummary struct {
	Analysis report.Analysis `json:"analysis"`
	Rows     []PairRow       `json:"rows"`
	// NReports counts consumed reports; NDropped counts reports without
	// a single significant cell (excluded silently) plus failed/empty
	// inputs.
	NReports int `json:"n_reports"`
	NDropped int `json:"n_dropped"`
}

// SummarizePairs combines per-pair attraction reports. With useVotes
// the repeated-test vote fraction decides Wilcoxon significance
// (n_significant/repeats >= 1-alpha); otherwise the single-run p-value
// is compared against alpha directly.
func SummarizePairs(reports []*report.Report, useVotes bool) (PairSummary, error) {
	summary := PairSummary{}
	for _, rep := range reports {
		if rep == nil || !rep.Finalized() {
			summary.NDropped++
			continue
		}
		if summary.Analysis == "" {
			summary.Analysis = rep.Analysis
		} else if summary.Analysis != rep.Analysis {
			return PairSummary{}, fmt.Errorf("mixed analysis kinds in batch: %s vs %s", summary.Analysis, rep.Analysis)
		}
		summary.NReports++

		alpha := rep.Alpha()
		row := PairRow{
			SpeciesA: rep.Selections[0].Label(),
			SpeciesB: rep.Selections[len(rep.Selections)-1].Label(),
			NPlates:  rep.NPlates,
			Cells:    make(map[report.GroupKey]PairCell, len(ratio.All)),
		}
		significant := false
		for _, g := range ratio.All {
			key := report.GroupKey(g.String())
			cell := PairCell{Wilcoxon: VerdictNone, Chi: VerdictNone}

			if w, ok := rep.Wilcoxon[key]; ok {
				cell.WilcoxonP = w.PValue
				if verdict := wilcoxonVerdict(rep, key, alpha, useVotes); verdict != VerdictNone {
					cell.Wilcoxon = verdict
					significant = true
				}
			}
			if chi, ok := rep.ChiSquared[key]; ok {
				cell.ChiStat = chi.Statistic
				cell.ChiP = chi.PValue
				if verdict := chiVerdict(chi, alpha); verdict != VerdictNone {
					cell.Chi = verdict
					significant = true
				}
			}
			row.Cells[key] = cell
		}
		if !significant {
			summary.NDropped++
			continue
		}
		summary.Rows = append(summary.Rows, row)
	}
	return summary, nil
}

// SpotRow is one species of a spot-preference summary.
type SpotRow struct {
	Species        string                     `json:"species"`
	NPlates        int                        `json:"n_plates"`
	Codes          map[report.GroupKey]string `json:"codes"`
	ChiSignificant bool                       `json:"chi_significant"`
	ChiP           float64                    `json:"chi_p"`
}

// SpotSummary merges many spot-preference reports.
type SpotSummary struct {
	Rows     []SpotRow `json:"rows"`
	NReports int       `json:"n_reports"`
	NDropped int       `json:"n_dropped"`
}

// SummarizeSpotPreference combines per-species spot-preference reports,
// coding each area combination 'p' (preference), 'r' (rejection) or 'n'.
// Rows without a single significant cell are dropped like pair rows.
func SummarizeSpotPreference(reports []*report.Report, useVotes bool) (SpotSummary, error) {
	summary := SpotSummary{}
	for _, rep := range reports {
		if rep == nil || !rep.Finalized() {
			summary.NDropped++
			continue
		}
		if rep.Analysis != report.AnalysisSpotPreference {
			return SpotSummary{}, fmt.Errorf("unexpected analysis kind in spot-preference batch: %s", rep.Analysis)
		}
		summary.NReports++

		alpha := rep.Alpha()
		row := SpotRow{
			Species: rep.Selections[0].Label(),
			NPlates: rep.NPlates,
			Codes:   make(map[report.GroupKey]string),
		}
		significant := false
		for key := range rep.WilcoxonRepeats {
			code := CodeNotSignificant
			switch wilcoxonVerdict(rep, key, alpha, useVotes) {
			case VerdictAttraction:
				code = CodePreference
				significant = true
			case VerdictRepulsion:
				code = CodeRejection
				significant = true
			}
			row.Codes[key] = code
		}
		if chi, ok := rep.ChiSquared[report.UserAreasKey]; ok {
			row.ChiP = chi.PValue
			if sig, err := stats.IsSignificant(chi.PValue, alpha); err == nil && sig {
				row.ChiSignificant = true
				significant = true
			}
		}
		if !significant {
			summary.NDropped++
			continue
		}
		summary.Rows = append(summary.Rows, row)
	}
	return summary, nil
}

// wilcoxonVerdict decides a group's verdict from either the repeated
// vote tallies or the single-run p-value. Direction always comes from
// the observed-vs-expected mean difference; for spot preference the
// attraction side is the preference side.
func wilcoxonVerdict(rep *report.Report, key report.GroupKey, alpha float64, useVotes bool) Verdict {
	var meanObserved, meanExpected float64
	significant := false

	if useVotes {
		votes, ok := rep.WilcoxonRepeats[key]
		if !ok || votes.Repeats == 0 {
			return VerdictNone
		}
		fraction := float64(votes.NSignificant) / float64(votes.Repeats)
		significant = fraction >= 1-alpha
		meanObserved = votes.MeanObserved
		meanExpected = votes.MeanExpected
	} else {
		w, ok := rep.Wilcoxon[key]
		if !ok {
			return VerdictNone
		}
		sig, err := stats.IsSignificant(w.PValue, alpha)
		if err != nil || !sig {
			return VerdictNone
		}
		significant = true
		meanObserved = w.MeanObserved
		meanExpected = w.MeanExpected
	}

	if !significant {
		return VerdictNone
	}
	switch {
	case meanObserved < meanExpected:
		return attractionSide(rep.Analysis)
	case meanObserved > meanExpected:
		return repulsionSide(rep.Analysis)
	default:
		return VerdictNone
	}
}

// chiVerdict decides a chi-squared cell's verdict; a NaN p-value is not
// significant.
func chiVerdict(chi report.ChiSquaredResult, alpha float64) Verdict {
	if math.IsNaN(chi.PValue) {
		return VerdictNone
	}
	sig, err := stats.IsSignificant(chi.PValue, alpha)
	if err != nil || !sig {
		return VerdictNone
	}
	switch {
	case chi.MeanObserved < chi.MeanExpected:
		return VerdictAttraction
	case chi.MeanObserved > chi.MeanExpected:
		return VerdictRepulsion
	default:
		return VerdictNone
	}
}

// attractionSide maps the "observed below expected" direction to a
// verdict: shorter distances mean attraction for the pair engines,
// fewer spots than expected mean rejection for spot preference.
func attractionSide(analysis report.Analysis) Verdict {
	if analysis == report.AnalysisSpotPreference {
		return VerdictRepulsion // rejection
	}
	return VerdictAttraction
}

func repulsionSide(analysis report.Analysis) Verdict {
	if analysis == report.AnalysisSpotPreference {
		return VerdictAttraction // preference
	}
	return VerdictRepulsion
}
