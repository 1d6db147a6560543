package nullmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosetl/domain/core"
)

func TestUniform_SizeAndRange(t *testing.T) {
	s := NewUniform(1)
	for n := 0; n <= 25; n++ {
		spots, err := s.RandomPositiveSpots(n)
		require.NoError(t, err)
		require.Len(t, spots, n)

		seen := make(map[int]struct{}, n)
		for _, spot := range spots {
			assert.GreaterOrEqual(t, spot, 1)
			assert.LessOrEqual(t, spot, 25)
			_, dup := seen[spot]
			assert.False(t, dup, "duplicate spot %d for n=%d", spot, n)
			seen[spot] = struct{}{}
		}
	}
}

func TestUniform_RejectsOutOfRange(t *testing.T) {
	s := NewUniform(1)
	_, err := s.RandomPositiveSpots(-1)
	assert.ErrorIs(t, err, core.ErrInvalidSpotCount)
	_, err = s.RandomPositiveSpots(26)
	assert.ErrorIs(t, err, core.ErrInvalidSpotCount)
}

// Consecutive draws must be independent; with 12 of 25 spots the chance
// of two identical draws is tiny, so across 20 trials at least one pair
// must differ (statistical check, not exact equality).
func TestUniform_DrawsAreIndependent(t *testing.T) {
	s := NewUniform(42)
	differing := 0
	for trial := 0; trial < 20; trial++ {
		a, err := s.RandomPositiveSpots(12)
		require.NoError(t, err)
		b, err := s.RandomPositiveSpots(12)
		require.NoError(t, err)

		setA := make(map[int]struct{}, len(a))
		for _, spot := range a {
			setA[spot] = struct{}{}
		}
		same := len(a) == len(b)
		for _, spot := range b {
			if _, ok := setA[spot]; !ok {
				same = false
				break
			}
		}
		if !same {
			differing++
		}
	}
	assert.Greater(t, differing, 15, "independent draws should rarely coincide")
}

func TestFixed_Deterministic(t *testing.T) {
	f := NewFixed()
	a, err := f.RandomPositiveSpots(7)
	require.NoError(t, err)
	b, err := f.RandomPositiveSpots(7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, a)
}
