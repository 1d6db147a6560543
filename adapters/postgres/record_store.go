// Package postgres persists settlement records and implements the
// record store port over a PostgreSQL settlement table.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gosetl/domain/plate"
	"gosetl/internal/errors"
	"gosetl/ports"
)

// RecordStore reads settlement records from PostgreSQL. The
// settlement_records table carries a plate identity plus one boolean
// column per grid spot.
type RecordStore struct {
	db *sqlx.DB
}

// NewRecordStore wraps an open database handle.
func NewRecordStore(db *sqlx.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Open connects to the database and verifies the connection.
func Open(url string) (*RecordStore, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.StoreError("connecting to postgres", err)
	}
	return &RecordStore{db: db}, nil
}

var spotColumns = func() []string {
	cols := make([]string, plate.GridSpots)
	for i := range cols {
		cols[i] = fmt.Sprintf("spot_%d", i+1)
	}
	return cols
}()

// PlateRecords returns the records matching any of the given locations
// and species. Empty filter slices match everything. Rows sharing a
// plate ID are returned as-is; callers merge them.
func (s *RecordStore) PlateRecords(ctx context.Context, locations, species []string) ([]plate.Record, error) {
	query := fmt.Sprintf(
		"SELECT plate_id, %s FROM settlement_records",
		strings.Join(spotColumns, ", "),
	)
	var clauses []string
	var args []interface{}
	if len(locations) > 0 {
		args = append(args, pq.Array(locations))
		clauses = append(clauses, fmt.Sprintf("location = ANY($%d)", len(args)))
	}
	if len(species) > 0 {
		args = append(args, pq.Array(species))
		clauses = append(clauses, fmt.Sprintf("species = ANY($%d)", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY plate_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.StoreError("querying settlement records", err)
	}
	defer rows.Close()

	var records []plate.Record
	for rows.Next() {
		var plateID string
		spots := make([]bool, plate.GridSpots)
		dest := make([]interface{}, 0, plate.GridSpots+1)
		dest = append(dest, &plateID)
		for i := range spots {
			dest = append(dest, &spots[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.StoreError("scanning settlement record", err)
		}
		rec := plate.Record{ID: plate.PlateID(plateID)}
		copy(rec.Spots[:], spots)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError("reading settlement records", err)
	}
	return records, nil
}

// Locations lists the distinct locations in the table.
func (s *RecordStore) Locations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "location")
}

// Species lists the distinct species in the table.
func (s *RecordStore) Species(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "species")
}

func (s *RecordStore) distinct(ctx context.Context, column string) ([]string, error) {
	var out []string
	query := fmt.Sprintf("SELECT DISTINCT %s FROM settlement_records ORDER BY %s", column, column)
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, errors.StoreError("listing "+column, err)
	}
	return out, nil
}

// InsertRecords bulk-inserts imported records for one location and
// species inside a single transaction.
func (s *RecordStore) InsertRecords(ctx context.Context, location, species string, records []plate.Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.StoreError("starting transaction", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, 0, plate.GridSpots+3)
	for i := 1; i <= plate.GridSpots+3; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
	}
	query := fmt.Sprintf(
		"INSERT INTO settlement_records (plate_id, location, species, %s) VALUES (%s)",
		strings.Join(spotColumns, ", "),
		strings.Join(placeholders, ", "),
	)
	for _, rec := range records {
		args := make([]interface{}, 0, plate.GridSpots+3)
		args = append(args, string(rec.ID), location, species)
		for _, v := range rec.Spots {
			args = append(args, v)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.StoreError("inserting settlement record", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.StoreError("committing settlement records", err)
	}
	return nil
}

// Close releases the pooled connections.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

var _ ports.RecordStore = (*RecordStore)(nil)
