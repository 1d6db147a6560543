// Package excel imports settlement tables from xlsx and csv files and
// exports batch summaries back to xlsx. An imported file can serve as
// the record store for a whole run, replacing the database.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gosetl/domain/plate"
	"gosetl/internal/errors"
	"gosetl/ports"
)

// Row is one imported settlement observation.
type Row struct {
	Location string
	Species  string
	Record   plate.Record
}

// DataReader handles reading settlement tables from Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader selecting the format by file extension.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadRows parses the file. The expected layout is a header row of
// plate_id, location, species, spot_1 .. spot_25; spot cells hold 1/0,
// true/false or an empty cell for absent.
func (r *DataReader) ReadRows() ([]Row, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", r.fileType, r.filePath))
	}
	switch r.fileType {
	case "csv":
		return r.readCSV()
	default:
		return r.readExcel()
	}
}

func (r *DataReader) readExcel() ([]Row, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening xlsx file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "reading xlsx rows")
	}
	return parseTable(cells)
}

func (r *DataReader) readCSV() ([]Row, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening csv file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	cells, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv rows")
	}
	return parseTable(cells)
}

func parseTable(cells [][]string) ([]Row, error) {
	if len(cells) < 2 {
		return nil, errors.InvalidInput("settlement table needs a header row and at least one data row")
	}
	header := cells[0]
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(cells)-1)
	for i, line := range cells[1:] {
		if blankLine(line) {
			continue
		}
		row, err := parseLine(line, cols)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+2)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnMap resolves header names to indices.
type columnMap struct {
	plateID  int
	location int
	species  int
	spots    [plate.GridSpots]int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{plateID: -1, location: -1, species: -1}
	for i := range cols.spots {
		cols.spots[i] = -1
	}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		switch {
		case key == "plate_id" || key == "plate":
			cols.plateID = i
		case key == "location":
			cols.location = i
		case key == "species":
			cols.species = i
		case strings.HasPrefix(key, "spot_"):
			n, err := strconv.Atoi(strings.TrimPrefix(key, "spot_"))
			if err != nil || n < 1 || n > plate.GridSpots {
				return cols, errors.InvalidInput(fmt.Sprintf("unrecognized spot column %q", name))
			}
			cols.spots[n-1] = i
		}
	}
	if cols.plateID < 0 {
		return cols, errors.InvalidInput("missing plate_id column")
	}
	for i, idx := range cols.spots {
		if idx < 0 {
			return cols, errors.InvalidInput(fmt.Sprintf("missing spot_%d column", i+1))
		}
	}
	return cols, nil
}

func parseLine(line []string, cols columnMap) (Row, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(line) {
			return ""
		}
		return strings.TrimSpace(line[i])
	}

	row := Row{
		Location: cell(cols.location),
		Species:  cell(cols.species),
	}
	id := cell(cols.plateID)
	if id == "" {
		return row, errors.InvalidInput("empty plate_id")
	}
	row.Record.ID = plate.PlateID(id)
	for i, idx := range cols.spots {
		v, err := parseBool(cell(idx))
		if err != nil {
			return row, errors.Wrapf(err, "spot_%d", i+1)
		}
		row.Record.Spots[i] = v
	}
	return row, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "false", "no":
		return false, nil
	case "1", "true", "yes":
		return true, nil
	default:
		return false, errors.InvalidInput(fmt.Sprintf("cannot read %q as a spot value", s))
	}
}

func blankLine(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// FileStore serves an imported settlement table through the record
// store port.
type FileStore struct {
	rows []Row
}

// OpenFileStore reads the file once and keeps the rows in memory.
func OpenFileStore(filePath string) (*FileStore, error) {
	rows, err := NewDataReader(filePath).ReadRows()
	if err != nil {
		return nil, err
	}
	return &FileStore{rows: rows}, nil
}

// NewFileStore wraps already parsed rows.
func NewFileStore(rows []Row) *FileStore {
	return &FileStore{rows: rows}
}

// PlateRecords filters the imported rows by location and species.
// Empty filter slices match everything.
func (s *FileStore) PlateRecords(ctx context.Context, locations, species []string) ([]plate.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []plate.Record
	for _, row := range s.rows {
		if !contains(locations, row.Location) || !contains(species, row.Species) {
			continue
		}
		out = append(out, row.Record)
	}
	return out, nil
}

// Locations lists the distinct locations of the imported table.
func (s *FileStore) Locations() []string {
	return s.distinct(func(r Row) string { return r.Location })
}

// Species lists the distinct species of the imported table.
func (s *FileStore) Species() []string {
	return s.distinct(func(r Row) string { return r.Species })
}

func (s *FileStore) distinct(key func(Row) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range s.rows {
		k := key(row)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Close is a no-op; the rows live in memory.
func (s *FileStore) Close() error { return nil }

func contains(filter []string, value string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == value {
			return true
		}
	}
	return false
}

var _ ports.RecordStore = (*FileStore)(nil)
