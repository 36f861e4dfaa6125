package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// Record is one row of a mobility table: the tile id plus the remaining
// columns as raw strings. Tile ids are opaque grouping keys here; the tile
// package owns their structure.
type Record struct {
	TileID string
	Fields map[string]string
}

// Table holds one acquisition day of mobility data for a city.
type Table struct {
	City    string
	Date    time.Time
	Columns []string
	Records []Record
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ReadCSV reads a vendor CSV file into records keyed by the tile id column.
// Feature columns vary per dataset, so rows are kept as raw string maps
// rather than decoded into a fixed schema.
func ReadCSV(path, tileColumn string) ([]string, []Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	return readCSV(f, path, tileColumn)
}

func readCSV(r io.Reader, path, tileColumn string) ([]string, []Record, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, eris.Wrapf(err, "dataset: read header of %s", path)
	}
	columns := make([]string, len(header))
	copy(columns, header)

	tileIdx := -1
	for i, c := range columns {
		if c == tileColumn {
			tileIdx = i
			break
		}
	}
	if tileIdx < 0 {
		return nil, nil, eris.Errorf("dataset: %s has no tile column %q (columns: %v)", path, tileColumn, columns)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrapf(err, "dataset: read %s", path)
		}

		rec := Record{
			TileID: row[tileIdx],
			Fields: make(map[string]string, len(columns)-1),
		}
		for i, v := range row {
			if i == tileIdx || i >= len(columns) {
				continue
			}
			rec.Fields[columns[i]] = v
		}
		records = append(records, rec)
	}
	return columns, records, nil
}
