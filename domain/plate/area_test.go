package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalAreas_Partition(t *testing.T) {
	seen := make(map[int]Area)
	total := 0
	for _, area := range CanonicalAreas {
		spots, err := AreaSpots(area)
		require.NoError(t, err)
		total += len(spots)
		for _, s := range spots {
			prev, dup := seen[s]
			assert.False(t, dup, "spot %d in both %q and %q", s, prev, area)
			seen[s] = area
		}
	}
	assert.Equal(t, GridSpots, total)
	assert.Len(t, seen, GridSpots)
}

func TestAreaSizes(t *testing.T) {
	sizes := map[Area]int{AreaA: 4, AreaB: 12, AreaC: 8, AreaD: 1}
	for area, want := range sizes {
		spots, err := AreaSpots(area)
		require.NoError(t, err)
		assert.Len(t, spots, want, "area %q", area)
	}
}

func TestSpotsInAreas_Union(t *testing.T) {
	spots, err := SpotsInAreas(AreaA, AreaD)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 13, 21, 25}, spots)
}

func TestAreaTotal(t *testing.T) {
	var r Record
	for _, spot := range []int{1, 13, 7} {
		r.Spots[spot-1] = true
	}

	a, err := AreaTotal(r, AreaA)
	require.NoError(t, err)
	assert.Equal(t, 1, a)

	cd, err := AreaTotal(r, AreaC, AreaD)
	require.NoError(t, err)
	assert.Equal(t, 2, cd)
}

func TestAreaProbability(t *testing.T) {
	p, err := AreaProbability(AreaD)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/25.0, p, 1e-12)

	all, err := AreaProbability(CanonicalAreas...)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, all, 1e-12)
}

func TestPreferenceCombos_Keys(t *testing.T) {
	keys := make([]string, len(PreferenceCombos))
	for i, combo := range PreferenceCombos {
		keys[i] = combo.Key()
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "A+B", "C+D", "A+B+C", "B+C+D"}, keys)
}

func TestAreaDefinition_Validate(t *testing.T) {
	assert.NoError(t, DefaultAreaDefinition().Validate())

	merged := AreaDefinition{
		Names: []string{"border", "middle"},
		Groups: map[string][]Area{
			"border": {AreaA, AreaB},
			"middle": {AreaC, AreaD},
		},
	}
	assert.NoError(t, merged.Validate())

	missing := AreaDefinition{
		Names:  []string{"only"},
		Groups: map[string][]Area{"only": {AreaA, AreaB, AreaC}},
	}
	assert.Error(t, missing.Validate())

	doubled := AreaDefinition{
		Names: []string{"x", "y"},
		Groups: map[string][]Area{
			"x": {AreaA, AreaB, AreaC, AreaD},
			"y": {AreaD},
		},
	}
	assert.Error(t, doubled.Validate())
}
