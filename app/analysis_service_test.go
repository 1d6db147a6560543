package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosetl/domain/report"
	"gosetl/internal/analysis"
	"gosetl/internal/testkit"
)

func serviceStore() *testkit.MemoryStore {
	records := testkit.ConcentratedPlates("texel", "sp-a", 10, 13)
	records = append(records, testkit.PairedPlates("texel", "sp-b", "sp-c", 8, []int{1, 2}, []int{1, 2})...)
	return testkit.NewMemoryStore(records...)
}

func TestAnalysisServiceRunAndLookup(t *testing.T) {
	svc := NewAnalysisService(serviceStore(), analysis.Config{Alpha: 0.05, Repeats: 10})
	svc.SetSeed(5)

	rep, err := svc.Run(context.Background(), RunRequest{
		Kind:       report.AnalysisSpotPreference,
		Selections: []report.Selection{{Species: []string{"sp-a"}}},
	})
	require.NoError(t, err)
	require.NotNil(t, rep)

	found, err := svc.Report(rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, found.ID)

	entries := svc.Reports()
	require.Len(t, entries, 1)
	assert.Equal(t, report.AnalysisSpotPreference, entries[0].Info.Kind)
}

func TestAnalysisServiceUnknownReport(t *testing.T) {
	svc := NewAnalysisService(serviceStore(), analysis.Config{Alpha: 0.05, Repeats: 5})
	_, err := svc.Report("missing")
	require.Error(t, err)
}

func TestAnalysisServiceSelectionShape(t *testing.T) {
	svc := NewAnalysisService(serviceStore(), analysis.Config{Alpha: 0.05, Repeats: 5})
	_, err := svc.Run(context.Background(), RunRequest{
		Kind:       report.AnalysisInterSpecific,
		Selections: []report.Selection{{Species: []string{"sp-b"}}},
	})
	require.Error(t, err)
}

func TestBatchServiceInterSpecificWithExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	svc := NewBatchService(serviceStore(), analysis.Config{Alpha: 0.05, Repeats: 20}, 2)
	svc.SetSeed(7)

	outcome, err := svc.Run(context.Background(), BatchRequest{
		Kind:      report.AnalysisInterSpecific,
		Locations: []string{"texel"},
		Species:   []string{"sp-b", "sp-c"},
		ExportDir: dir,
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.PairSummary)
	assert.Len(t, outcome.Results, 1)
	require.NoError(t, outcome.Results[0].Err)
	assert.FileExists(t, outcome.SummaryPath)
}

func TestBatchServiceSpotPreference(t *testing.T) {
	svc := NewBatchService(serviceStore(), analysis.Config{Alpha: 0.05, Repeats: 20}, 2)
	svc.SetSeed(3)

	outcome, err := svc.Run(context.Background(), BatchRequest{
		Kind:      report.AnalysisSpotPreference,
		Locations: []string{"texel"},
		Species:   []string{"sp-a"},
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.SpotSummary)
	assert.Equal(t, 1, outcome.SpotSummary.NReports)
	assert.Empty(t, outcome.SummaryPath)
}
