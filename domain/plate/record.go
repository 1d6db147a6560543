package plate

import (
	"sort"

	"gosetl/domain/core"
)

// GridSpots is the number of discrete settlement spots on a SETL plate,
// arranged as a fixed 5x5 grid. Spot numbers run 1..25 row-major.
const (
	GridSpots = 25
	GridSide  = 5
)

// PlateID identifies a physical settlement plate in the record store.
type PlateID string

// String returns the string representation.
func (id PlateID) String() string { return string(id) }

// Record is one plate's presence/absence observation for a single
// species selection: the plate identifier plus 25 positive-spot flags.
// Spots[i] corresponds to spot number i+1. Immutable once loaded.
type Record struct {
	ID    PlateID
	Spots [GridSpots]bool
}

// NewRecord builds a record with the given positive spot numbers.
func NewRecord(id PlateID, spots ...int) (Record, error) {
	r := Record{ID: id}
	for _, s := range spots {
		if s < 1 || s > GridSpots {
			return Record{}, core.NewSpotError(s)
		}
		r.Spots[s-1] = true
	}
	return r, nil
}

// PositiveSpots returns the spot numbers (1..25) flagged positive, in
// ascending order.
func (r Record) PositiveSpots() []int {
	spots := make([]int, 0, GridSpots)
	for i, on := range r.Spots {
		if on {
			spots = append(spots, i+1)
		}
	}
	return spots
}

// PositiveCount returns the number of positive spots.
func (r Record) PositiveCount() int {
	n := 0
	for _, on := range r.Spots {
		if on {
			n++
		}
	}
	return n
}

// Merge returns the logical OR of two observations of the same plate.
func (r Record) Merge(other Record) Record {
	merged := Record{ID: r.ID}
	for i := range r.Spots {
		merged.Spots[i] = r.Spots[i] || other.Spots[i]
	}
	return merged
}

// SpotTable maps plate IDs to merged records for one species selection.
// Built per analysis run and discarded at run end.
type SpotTable map[PlateID]Record

// MergeRecords builds a SpotTable from raw records, OR-merging records
// that share a plate ID ("make plates unique").
func MergeRecords(records []Record) SpotTable {
	table := make(SpotTable, len(records))
	for _, rec := range records {
		if existing, ok := table[rec.ID]; ok {
			table[rec.ID] = existing.Merge(rec)
		} else {
			table[rec.ID] = rec
		}
	}
	return table
}

// PlateIDs returns the table's plate IDs in stable sorted order.
func (t SpotTable) PlateIDs() []PlateID {
	ids := make([]PlateID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MatchedPlates returns the plate IDs present in both tables (inner
// join), sorted. Plates absent from either selection are excluded from
// inter-specific comparison.
func MatchedPlates(a, b SpotTable) []PlateID {
	ids := make([]PlateID, 0, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
