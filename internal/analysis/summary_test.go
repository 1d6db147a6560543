package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosetl/domain/report"
)

func pairReport(t *testing.T, speciesA, speciesB string, sigVotes bool) *report.Report {
	t.Helper()
	rep := report.New(report.AnalysisInterSpecific, []report.Selection{
		{Species: []string{speciesA}},
		{Species: []string{speciesB}},
	})
	rep.NPlates = 12
	require.NoError(t, rep.SetOption("alpha_level", 0.05))
	require.NoError(t, rep.SetOption("repeats", 100))

	nSig := 10
	if sigVotes {
		nSig = 97
	}
	require.NoError(t, rep.AddWilcoxonRepeat("2", report.WilcoxonRepeatResult{
		NPlates:      12,
		Repeats:      100,
		NSignificant: nSig,
		NAttraction:  nSig,
		MeanObserved: 1.4,
		MeanExpected: 2.1,
	}))
	require.NoError(t, rep.AddWilcoxon("2", report.WilcoxonResult{
		PValue:       0.2,
		MeanObserved: 1.4,
		MeanExpected: 2.1,
	}))
	rep.Finalize()
	return rep
}

func TestSummarizePairsVoteRule(t *testing.T) {
	reports := []*report.Report{
		pairReport(t, "Balanus crenatus", "Mytilus edulis", true),
		pairReport(t, "Balanus crenatus", "Obelia dichotoma", false),
		nil,
	}

	summary, err := SummarizePairs(reports, true)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.NReports)
	assert.Equal(t, 2, summary.NDropped) // one non-significant report, one nil
	require.Len(t, summary.Rows, 1)

	row := summary.Rows[0]
	assert.Equal(t, "Balanus crenatus", row.SpeciesA)
	assert.Equal(t, "Mytilus edulis", row.SpeciesB)
	assert.Equal(t, 12, row.NPlates)

	cell := row.Cells["2"]
	// Observed mean below expected mean codes attraction.
	assert.Equal(t, VerdictAttraction, cell.Wilcoxon)
	// Groups the report never produced still appear, coded ns.
	assert.Equal(t, VerdictNone, row.Cells["1"].Wilcoxon)
	assert.Equal(t, VerdictNone, row.Cells["1-5"].Chi)
}

func TestSummarizePairsRowPerSignificantReport(t *testing.T) {
	reports := []*report.Report{
		pairReport(t, "Balanus crenatus", "Mytilus edulis", true),
		pairReport(t, "Balanus crenatus", "Obelia dichotoma", false),
		pairReport(t, "Mytilus edulis", "Obelia dichotoma", true),
		pairReport(t, "Ciona intestinalis", "Obelia dichotoma", false),
	}

	summary, err := SummarizePairs(reports, true)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.NReports)
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, "Balanus crenatus", summary.Rows[0].SpeciesA)
	assert.Equal(t, "Mytilus edulis", summary.Rows[1].SpeciesA)
}

func TestSummarizePairsDirectPValue(t *testing.T) {
	rep := report.New(report.AnalysisIntraSpecific, []report.Selection{
		{Species: []string{"Ciona intestinalis"}},
	})
	rep.NPlates = 8
	require.NoError(t, rep.SetOption("alpha_level", 0.05))
	require.NoError(t, rep.AddWilcoxon("3", report.WilcoxonResult{
		PValue:       0.01,
		MeanObserved: 3.2,
		MeanExpected: 2.4,
	}))
	rep.Finalize()

	summary, err := SummarizePairs([]*report.Report{rep}, false)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 1)
	// Observed mean above expected mean codes repulsion.
	assert.Equal(t, VerdictRepulsion, summary.Rows[0].Cells["3"].Wilcoxon)
	assert.InDelta(t, 0.01, summary.Rows[0].Cells["3"].WilcoxonP, 1e-12)
}

func TestSummarizePairsChiCell(t *testing.T) {
	rep := report.New(report.AnalysisInterSpecific, []report.Selection{
		{Species: []string{"a"}},
		{Species: []string{"b"}},
	})
	require.NoError(t, rep.SetOption("alpha_level", 0.05))
	require.NoError(t, rep.AddChiSquared("1-5", report.ChiSquaredResult{
		Statistic:    19.3,
		PValue:       0.002,
		DF:           8,
		MeanObserved: 1.1,
		MeanExpected: 2.0,
	}))
	rep.Finalize()

	summary, err := SummarizePairs([]*report.Report{rep}, true)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 1)
	cell := summary.Rows[0].Cells["1-5"]
	assert.Equal(t, VerdictAttraction, cell.Chi)
	assert.InDelta(t, 19.3, cell.ChiStat, 1e-12)
}

func TestSummarizePairsRejectsMixedKinds(t *testing.T) {
	inter := pairReport(t, "a", "b", true)
	intra := report.New(report.AnalysisIntraSpecific, []report.Selection{{Species: []string{"c"}}})
	intra.Finalize()

	_, err := SummarizePairs([]*report.Report{inter, intra}, true)
	assert.Error(t, err)
}

func TestSummarizePairsUnfinalizedDropped(t *testing.T) {
	open := report.New(report.AnalysisInterSpecific, []report.Selection{{Species: []string{"a"}}})

	summary, err := SummarizePairs([]*report.Report{open}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NReports)
	assert.Equal(t, 1, summary.NDropped)
}

func TestSummarizeSpotPreference(t *testing.T) {
	rep := report.New(report.AnalysisSpotPreference, []report.Selection{
		{Species: []string{"Botryllus schlosseri"}},
	})
	rep.NPlates = 20
	require.NoError(t, rep.SetOption("alpha_level", 0.05))
	require.NoError(t, rep.SetOption("repeats", 100))

	// Spot D strongly overrepresented: a preference.
	require.NoError(t, rep.AddWilcoxonRepeat("D", report.WilcoxonRepeatResult{
		Repeats:      100,
		NSignificant: 99,
		NAttraction:  99,
		MeanObserved: 0.9,
		MeanExpected: 0.04,
	}))
	// Corners underrepresented but not often enough to vote significant.
	require.NoError(t, rep.AddWilcoxonRepeat("A", report.WilcoxonRepeatResult{
		Repeats:      100,
		NSignificant: 40,
		MeanObserved: 0.2,
		MeanExpected: 0.6,
	}))
	require.NoError(t, rep.AddChiSquared(report.UserAreasKey, report.ChiSquaredResult{
		Statistic: 31.0,
		PValue:    0.0001,
		DF:        3,
	}))
	rep.Finalize()

	summary, err := SummarizeSpotPreference([]*report.Report{rep}, true)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 1)

	row := summary.Rows[0]
	assert.Equal(t, "Botryllus schlosseri", row.Species)
	assert.Equal(t, CodePreference, row.Codes["D"])
	assert.Equal(t, CodeNotSignificant, row.Codes["A"])
	assert.True(t, row.ChiSignificant)
}

func TestSummarizeSpotPreferenceDropsQuietRows(t *testing.T) {
	rep := report.New(report.AnalysisSpotPreference, []report.Selection{
		{Species: []string{"x"}},
	})
	require.NoError(t, rep.SetOption("alpha_level", 0.05))
	require.NoError(t, rep.AddWilcoxonRepeat("B", report.WilcoxonRepeatResult{
		Repeats:      100,
		NSignificant: 3,
	}))
	rep.Finalize()

	summary, err := SummarizeSpotPreference([]*report.Report{rep}, true)
	require.NoError(t, err)
	assert.Empty(t, summary.Rows)
	assert.Equal(t, 1, summary.NDropped)
}
