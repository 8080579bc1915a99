// Package table reads the six.moves reference table.
//
// The table is the tab-separated export of the "Supported renames" section of
// the six documentation: one row per six.moves attribute, with the Python 2
// and Python 3 locations it maps between.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column names the loader requires in the header row.
const (
	ColumnPython2 = "Python 2 name"
	ColumnPython3 = "Python 3 name"
	ColumnName    = "Name"
)

var ErrMissingColumn = errors.New("missing required column")

var requiredColumns = []string{ColumnPython2, ColumnPython3, ColumnName}

// Row is one data row keyed by column name.
type Row map[string]string

func (r Row) Python2() string { return r[ColumnPython2] }
func (r Row) Python3() string { return r[ColumnPython3] }
func (r Row) Name() string    { return r[ColumnName] }

// LoadFile opens path and loads it with Load.
func LoadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	rows, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", path, err)
	}
	return rows, nil
}

// Load reads a tab-delimited table whose first line is the header.
func Load(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	// rows copied from HTML tables sometimes lose trailing empty cells
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkColumns(header); err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(record) {
			continue
		}

		row := make(Row, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = strings.TrimSpace(record[i])
			} else {
				row[column] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func checkColumns(header []string) error {
	present := make(map[string]bool, len(header))
	for _, column := range header {
		present[column] = true
	}

	var missing []string
	for _, column := range requiredColumns {
		if !present[column] {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
