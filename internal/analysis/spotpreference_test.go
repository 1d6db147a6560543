package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosetl/domain/core"
	"gosetl/domain/report"
	"gosetl/internal/nullmodel"
	"gosetl/internal/testkit"
)

func testConfig() Config {
	return Config{Alpha: 0.05, Repeats: 100}
}

func TestSpotPreferenceCenterConcentration(t *testing.T) {
	// Every plate settled only on the centre spot. Area D holds 1 of 25
	// spots, so the null model almost never reproduces this.
	store := testkit.NewMemoryStore(
		testkit.ConcentratedPlates("texel", "Botryllus schlosseri", 10, 13)...,
	)
	eng := NewSpotPreference(store, nullmodel.NewUniform(1), testConfig())
	progress := &testkit.CountingProgress{}
	eng.SetProgress(progress)

	rep, err := eng.Run(context.Background(), SpotPreferenceRequest{
		Selection: report.Selection{Species: []string{"Botryllus schlosseri"}},
	})
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.Equal(t, report.AnalysisSpotPreference, rep.Analysis)
	assert.True(t, rep.Finalized())
	assert.Equal(t, 10, rep.NPlates)
	assert.Equal(t, StateDone, eng.State())

	votes, ok := rep.WilcoxonRepeats["D"]
	require.True(t, ok)
	assert.Equal(t, 100, votes.Repeats)
	assert.GreaterOrEqual(t, votes.NSignificant, 95)
	assert.GreaterOrEqual(t, votes.NAttraction, 95) // preference votes
	assert.InDelta(t, 1.0, votes.MeanObserved, 1e-12)
	assert.Less(t, votes.MeanExpected, 0.5)

	// The chi-squared over the default user areas is always present.
	chi, ok := rep.ChiSquared[report.UserAreasKey]
	require.True(t, ok)
	assert.Equal(t, 3, chi.DF)
	assert.Less(t, chi.PValue, 0.001)

	// FixedSteps phase events plus one per repeat.
	assert.Equal(t, FixedSteps+100, progress.Advances())
	assert.Len(t, progress.Messages(), FixedSteps)
}

func TestSpotPreferenceNoData(t *testing.T) {
	store := testkit.NewMemoryStore(
		testkit.ConcentratedPlates("texel", "empty sp.", 5)...,
	)
	eng := NewSpotPreference(store, nullmodel.NewUniform(1), testConfig())

	_, err := eng.Run(context.Background(), SpotPreferenceRequest{
		Selection: report.Selection{Species: []string{"empty sp."}},
	})
	require.ErrorIs(t, err, core.ErrNoData)
	assert.Equal(t, StateNoData, eng.State())
}

func TestSpotPreferenceCancelledContext(t *testing.T) {
	store := testkit.NewMemoryStore(
		testkit.ConcentratedPlates("texel", "x", 5, 13)...,
	)
	eng := NewSpotPreference(store, nullmodel.NewUniform(1), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, SpotPreferenceRequest{
		Selection: report.Selection{Species: []string{"x"}},
	})
	require.Error(t, err)
}

func TestSpotPreferenceCooperativeStop(t *testing.T) {
	store := testkit.NewMemoryStore(
		testkit.ConcentratedPlates("texel", "x", 5, 13)...,
	)
	eng := NewSpotPreference(store, nullmodel.NewUniform(1), testConfig())
	eng.Cancel()

	_, err := eng.Run(context.Background(), SpotPreferenceRequest{
		Selection: report.Selection{Species: []string{"x"}},
	})
	require.ErrorIs(t, err, core.ErrCancelled)
	assert.Equal(t, StateAborted, eng.State())
}

func TestSpotPreferenceDeterministicWithFixedSampler(t *testing.T) {
	records := testkit.RandomPlates("texel", "x", 8, 6, 7)
	run := func() *report.Report {
		eng := NewSpotPreference(testkit.NewMemoryStore(records...), nullmodel.NewFixed(), Config{Alpha: 0.05, Repeats: 10})
		rep, err := eng.Run(context.Background(), SpotPreferenceRequest{
			Selection: report.Selection{Species: []string{"x"}},
		})
		require.NoError(t, err)
		return rep
	}

	first := run()
	second := run()
	require.Equal(t, len(first.Wilcoxon), len(second.Wilcoxon))
	for key, w := range first.Wilcoxon {
		other, ok := second.Wilcoxon[key]
		require.True(t, ok, "missing group %s", key)
		assert.Equal(t, w.Statistic, other.Statistic)
		assert.Equal(t, w.PValue, other.PValue)
	}
	for key, votes := range first.WilcoxonRepeats {
		assert.Equal(t, votes.NSignificant, second.WilcoxonRepeats[key].NSignificant)
	}
}

func TestSpotPreferenceInvalidConfig(t *testing.T) {
	store := testkit.NewMemoryStore()
	eng := NewSpotPreference(store, nullmodel.NewUniform(1), Config{Alpha: 0, Repeats: 100})

	_, err := eng.Run(context.Background(), SpotPreferenceRequest{})
	require.ErrorIs(t, err, core.ErrInvalidAlpha)
}

func TestSpotPreferenceMergesDuplicatePlates(t *testing.T) {
	// The same plate reported twice with different spots merges by OR
	// and counts once.
	a := testkit.ConcentratedPlates("texel", "x", 1, 13)
	b := testkit.ConcentratedPlates("texel", "x", 1, 1)
	store := testkit.NewMemoryStore(append(a, b...)...)
	eng := NewSpotPreference(store, nullmodel.NewUniform(1), Config{Alpha: 0.05, Repeats: 5})

	rep, err := eng.Run(context.Background(), SpotPreferenceRequest{
		Selection: report.Selection{Species: []string{"x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.NPlates)
}
