package ports

import (
	"context"

	"gosetl/domain/plate"
)

// RecordStore is the narrow query interface over the external SETL
// record database. Implementations may be shared read-only across
// concurrent analysis runs.
type RecordStore interface {
	// PlateRecords returns the raw plate records matching a locations
	// and species selection. Empty slices select everything. Records
	// sharing a plate ID are returned as-is; callers merge them with
	// plate.MergeRecords.
	PlateRecords(ctx context.Context, locations, species []string) ([]plate.Record, error)

	// Close releases the store's resources. Engines close private
	// stores on cancellation.
	Close() error
}
