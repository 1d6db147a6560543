package ratio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosetl/domain/core"
)

func TestGroupFor_Symmetric(t *testing.T) {
	for a := 1; a <= 25; a++ {
		for b := 1; b <= 25; b++ {
			gAB, okAB, err := GroupFor(a, b)
			require.NoError(t, err)
			gBA, okBA, err := GroupFor(b, a)
			require.NoError(t, err)
			assert.Equal(t, gAB, gBA, "asymmetric at (%d,%d)", a, b)
			assert.Equal(t, okAB, okBA)
		}
	}
}

// Bands 1..5 partition every ratio except the excluded 25:25, and the
// combined group is exactly their union.
func TestGroups_Partition(t *testing.T) {
	for a := 1; a <= 25; a++ {
		for b := 1; b <= 25; b++ {
			band, ok, err := GroupFor(a, b)
			require.NoError(t, err)

			if a == 25 && b == 25 {
				assert.False(t, ok, "25:25 must be excluded")
				in, err := Combined.Contains(a, b)
				require.NoError(t, err)
				assert.False(t, in)
				continue
			}

			require.True(t, ok)
			memberships := 0
			for _, g := range Bands {
				in, err := g.Contains(a, b)
				require.NoError(t, err)
				if in {
					memberships++
					assert.Equal(t, g, band)
				}
			}
			assert.Equal(t, 1, memberships, "(%d,%d) must be in exactly one band", a, b)

			combined, err := Combined.Contains(a, b)
			require.NoError(t, err)
			assert.True(t, combined)
		}
	}
}

func TestGroupFor_Bands(t *testing.T) {
	cases := []struct {
		a, b int
		want Group
	}{
		{1, 1, 1},
		{5, 2, 1},
		{6, 1, 2},
		{10, 10, 2},
		{11, 3, 3},
		{15, 15, 3},
		{16, 1, 4},
		{20, 19, 4},
		{21, 1, 5},
		{25, 24, 5},
	}
	for _, c := range cases {
		g, ok, err := GroupFor(c.a, c.b)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, c.want, g, "(%d,%d)", c.a, c.b)
	}
}

func TestGroupFor_RejectsOutOfRange(t *testing.T) {
	_, _, err := GroupFor(0, 5)
	assert.ErrorIs(t, err, core.ErrInvalidRatio)
	_, _, err = GroupFor(5, 26)
	assert.ErrorIs(t, err, core.ErrInvalidRatio)
}

func TestGroupString(t *testing.T) {
	assert.Equal(t, "3", Group(3).String())
	assert.Equal(t, "1-5", Combined.String())
}
