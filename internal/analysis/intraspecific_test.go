package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosetl/domain/core"
	"gosetl/domain/plate"
	"gosetl/domain/report"
	"gosetl/internal/nullmodel"
	"gosetl/internal/testkit"
)

func TestIntraSpecificAdjacentClumping(t *testing.T) {
	// Two adjacent spots per plate: every observed pair distance is 1,
	// far below the random-placement mean of about 2.5.
	store := testkit.NewMemoryStore(
		testkit.ConcentratedPlates("texel", "Balanus crenatus", 10, 1, 2)...,
	)
	eng := NewIntraSpecific(store, nullmodel.NewUniform(7), testConfig())
	progress := &testkit.CountingProgress{}
	eng.SetProgress(progress)

	rep, err := eng.Run(context.Background(), IntraSpecificRequest{
		Selection: report.Selection{Species: []string{"Balanus crenatus"}},
	})
	require.NoError(t, err)
	assert.Equal(t, report.AnalysisIntraSpecific, rep.Analysis)
	assert.Equal(t, 10, rep.NPlates)
	assert.Equal(t, StateDone, eng.State())

	// Two positive spots put every plate in ratio band 1, and every
	// plate also contributes to the combined group.
	for _, key := range []report.GroupKey{"1", "1-5"} {
		votes, ok := rep.WilcoxonRepeats[key]
		require.True(t, ok, "missing group %s", key)
		assert.Equal(t, 100, votes.Repeats)
		assert.GreaterOrEqual(t, votes.NSignificant, 90)
		assert.GreaterOrEqual(t, votes.NAttraction, 90)
		assert.InDelta(t, 1.0, votes.MeanObserved, 1e-12)
		assert.Greater(t, votes.MeanExpected, 1.5)
	}

	// No plates fall in the other bands.
	_, ok := rep.WilcoxonRepeats["3"]
	assert.False(t, ok)

	// Goodness of fit over the self-pair distance classes.
	chi, ok := rep.ChiSquared["1"]
	require.True(t, ok)
	classes := plate.DistanceClasses(false)
	assert.Equal(t, len(classes)-1, chi.DF)
	assert.Less(t, chi.PValue, 0.01)

	assert.Equal(t, FixedSteps+100, progress.Advances())
}

func TestIntraSpecificSkipsSingleSpotPlates(t *testing.T) {
	records := testkit.ConcentratedPlates("texel", "x", 4, 1, 2)
	records = append(records, testkit.ConcentratedPlates("texel", "y-single", 3, 5)...)
	store := testkit.NewMemoryStore(records...)

	eng := NewIntraSpecific(store, nullmodel.NewUniform(1), Config{Alpha: 0.05, Repeats: 5})
	rep, err := eng.Run(context.Background(), IntraSpecificRequest{
		Selection: report.Selection{},
	})
	require.NoError(t, err)
	// Only the four two-spot plates carry a pair.
	assert.Equal(t, 4, rep.NPlates)
}

func TestIntraSpecificFullyCoveredPlateExcluded(t *testing.T) {
	all := make([]int, plate.GridSpots)
	for i := range all {
		all[i] = i + 1
	}
	store := testkit.NewMemoryStore(
		testkit.ConcentratedPlates("texel", "x", 3, all...)...,
	)
	eng := NewIntraSpecific(store, nullmodel.NewUniform(1), Config{Alpha: 0.05, Repeats: 5})

	// The 25:25 plate falls outside every ratio group; with nothing
	// else selected the run has no data.
	_, err := eng.Run(context.Background(), IntraSpecificRequest{
		Selection: report.Selection{Species: []string{"x"}},
	})
	require.ErrorIs(t, err, core.ErrNoData)
	assert.Equal(t, StateNoData, eng.State())
}

func TestIntraSpecificNoData(t *testing.T) {
	store := testkit.NewMemoryStore()
	eng := NewIntraSpecific(store, nullmodel.NewUniform(1), testConfig())

	_, err := eng.Run(context.Background(), IntraSpecificRequest{
		Selection: report.Selection{Species: []string{"absent sp."}},
	})
	require.ErrorIs(t, err, core.ErrNoData)
	assert.Equal(t, StateNoData, eng.State())
}
