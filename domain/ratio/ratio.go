// Package ratio classifies plate pairs by their positive-spot counts.
//
// A plate pair's ratio is the unordered pair of the two selections'
// positive-spot counts. Ratios are banded by the larger count: band 1
// covers max counts 1..5, band 2 covers 6..10, and so on through band 5
// at 21..25. The degenerate 25:25 ratio (both plates fully covered)
// carries no spatial information and is excluded from every band. The
// combined group is the union of bands 1..5 under the same exclusion.
package ratio

import (
	"fmt"

	"gosetl/domain/core"
)

// Group is a ratio-group identifier: bands 1..5 plus the combined
// group.
type Group int

// Combined is the union of bands 1..5.
const Combined Group = -5

// Bands lists the five banded groups in order.
var Bands = []Group{1, 2, 3, 4, 5}

// All lists every reportable group: the five bands plus Combined.
var All = []Group{1, 2, 3, 4, 5, Combined}

// String renders the group for report keys.
func (g Group) String() string {
	if g == Combined {
		return "1-5"
	}
	return fmt.Sprintf("%d", int(g))
}

// GroupFor classifies a plate pair by its positive-spot counts. The
// classification is symmetric in (a, b). The second return is false for
// the excluded 25:25 ratio.
func GroupFor(a, b int) (Group, bool, error) {
	if a < 1 || a > 25 {
		return 0, false, fmt.Errorf("%w: %d", core.ErrInvalidRatio, a)
	}
	if b < 1 || b > 25 {
		return 0, false, fmt.Errorf("%w: %d", core.ErrInvalidRatio, b)
	}
	if a == 25 && b == 25 {
		return 0, false, nil
	}
	m := a
	if b > m {
		m = b
	}
	return Group((m-1)/5 + 1), true, nil
}

// Contains reports whether a plate pair with counts (a, b) belongs to
// the group. Combined contains every non-excluded pair.
func (g Group) Contains(a, b int) (bool, error) {
	band, ok, err := GroupFor(a, b)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if g == Combined {
		return true, nil
	}
	return band == g, nil
}
