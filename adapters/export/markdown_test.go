package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosetl/domain/report"
)

func sampleReport(t *testing.T) *report.Report {
	t.Helper()
	rep := report.New(report.AnalysisIntraSpecific, []report.Selection{
		{Locations: []string{"texel"}, Species: []string{"Balanus crenatus"}},
	})
	rep.NPlates = 10
	require.NoError(t, rep.SetOption("alpha_level", 0.05))
	require.NoError(t, rep.SetOption("repeats", 100))
	require.NoError(t, rep.AddWilcoxonRepeat("1", report.WilcoxonRepeatResult{
		NPlates: 10, NValues: 10, Repeats: 100, NSignificant: 96, NAttraction: 96,
		MeanObserved: 1.0, MeanExpected: 2.5,
	}))
	require.NoError(t, rep.AddWilcoxon("1", report.WilcoxonResult{
		NPlates: 10, NValues: 10, Statistic: 12.0, PValue: 0.0004,
		MeanObserved: 1.0, MeanExpected: 2.5,
	}))
	require.NoError(t, rep.AddChiSquared("1", report.ChiSquaredResult{
		NValues: 10, Statistic: 55.2, DF: 13, PValue: 0.00001, LowExpected: true,
	}))
	rep.Finalize()
	return rep
}

func TestMarkdownRendering(t *testing.T) {
	md, err := Markdown(sampleReport(t))
	require.NoError(t, err)

	assert.Contains(t, md, "# Intra-specific attraction")
	assert.Contains(t, md, "Balanus crenatus")
	assert.Contains(t, md, "96/100")
	assert.Contains(t, md, "Chi-squared goodness-of-fit")
	assert.Contains(t, md, "| 1 |")
}

func TestMarkdownRejectsUnfinishedReport(t *testing.T) {
	rep := report.New(report.AnalysisSpotPreference, nil)
	_, err := Markdown(rep)
	require.Error(t, err)
}

func TestHTMLRendering(t *testing.T) {
	page, err := HTML(sampleReport(t))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<table>")
	assert.Contains(t, string(page), "Intra-specific attraction")
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	mdPath, htmlPath, err := WriteFiles(sampleReport(t), dir)
	require.NoError(t, err)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Repeated Wilcoxon")

	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<html>")
}
