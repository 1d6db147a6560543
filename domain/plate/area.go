package plate

import (
	"fmt"
	"sort"
	"strings"

	"gosetl/domain/core"
)

// Area names the four canonical plate areas. They partition the 25
// spots: A the corners, B the remaining border, C the inner ring, D the
// center spot.
type Area string

const (
	AreaA Area = "A"
	AreaB Area = "B"
	AreaC Area = "C"
	AreaD Area = "D"
)

// CanonicalAreas lists the areas in display order.
var CanonicalAreas = []Area{AreaA, AreaB, AreaC, AreaD}

// canonicalSpots fixes the spot membership of each canonical area.
var canonicalSpots = map[Area][]int{
	AreaA: {1, 5, 21, 25},
	AreaB: {2, 3, 4, 6, 10, 11, 15, 16, 20, 22, 23, 24},
	AreaC: {7, 8, 9, 12, 14, 17, 18, 19},
	AreaD: {13},
}

// AreaSpots returns the spot numbers of a canonical area.
func AreaSpots(area Area) ([]int, error) {
	spots, ok := canonicalSpots[area]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidAreaName, area)
	}
	out := make([]int, len(spots))
	copy(out, spots)
	return out, nil
}

// SpotsInAreas returns the union of the spot sets of the named canonical
// areas, ascending.
func SpotsInAreas(areas ...Area) ([]int, error) {
	seen := make(map[int]struct{})
	for _, area := range areas {
		spots, err := AreaSpots(area)
		if err != nil {
			return nil, err
		}
		for _, s := range spots {
			seen[s] = struct{}{}
		}
	}
	union := make([]int, 0, len(seen))
	for s := range seen {
		union = append(union, s)
	}
	sort.Ints(union)
	return union, nil
}

// AreaTotal counts a record's positive spots that fall within the named
// canonical areas.
func AreaTotal(r Record, areas ...Area) (int, error) {
	spots, err := SpotsInAreas(areas...)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, s := range spots {
		if r.Spots[s-1] {
			total++
		}
	}
	return total, nil
}

// AreaProbability is the null-model probability that a uniformly placed
// spot lands in the union of the named canonical areas.
func AreaProbability(areas ...Area) (float64, error) {
	spots, err := SpotsInAreas(areas...)
	if err != nil {
		return 0, err
	}
	return float64(len(spots)) / float64(GridSpots), nil
}

// AreaCombo is a fixed combination of canonical areas tested by the
// spot-preference Wilcoxon run.
type AreaCombo []Area

// Key renders the combo as a stable group key, e.g. "A+B".
func (c AreaCombo) Key() string {
	parts := make([]string, len(c))
	for i, a := range c {
		parts[i] = string(a)
	}
	return strings.Join(parts, "+")
}

// PreferenceCombos lists the canonical area combinations the
// spot-preference engine tests, in report order.
var PreferenceCombos = []AreaCombo{
	{AreaA},
	{AreaB},
	{AreaC},
	{AreaD},
	{AreaA, AreaB},
	{AreaC, AreaD},
	{AreaA, AreaB, AreaC},
	{AreaB, AreaC, AreaD},
}

// AreaDefinition maps user-chosen area names to sets of canonical
// areas. Users may merge canonical areas but never split them; together
// the definition must cover all four.
type AreaDefinition struct {
	Names  []string
	Groups map[string][]Area
}

// DefaultAreaDefinition keeps each canonical area as its own user area.
func DefaultAreaDefinition() AreaDefinition {
	return AreaDefinition{
		Names: []string{"area1", "area2", "area3", "area4"},
		Groups: map[string][]Area{
			"area1": {AreaA},
			"area2": {AreaB},
			"area3": {AreaC},
			"area4": {AreaD},
		},
	}
}

// Validate checks that the definition partitions the four canonical
// areas: every area assigned exactly once.
func (d AreaDefinition) Validate() error {
	seen := make(map[Area]int)
	for _, name := range d.Names {
		group, ok := d.Groups[name]
		if !ok {
			return fmt.Errorf("area definition names %q but has no group for it", name)
		}
		if len(group) == 0 {
			return fmt.Errorf("area definition group %q is empty", name)
		}
		for _, a := range group {
			if _, ok := canonicalSpots[a]; !ok {
				return fmt.Errorf("%w: %q in group %q", core.ErrInvalidAreaName, a, name)
			}
			seen[a]++
		}
	}
	for _, a := range CanonicalAreas {
		switch seen[a] {
		case 0:
			return fmt.Errorf("area definition does not cover canonical area %q", a)
		case 1:
		default:
			return fmt.Errorf("area definition assigns canonical area %q twice", a)
		}
	}
	return nil
}
