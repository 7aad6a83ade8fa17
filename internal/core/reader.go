package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RowReader streams a CSV source one record at a time, pairing values with
// header column names. It never holds more than the current record.
type RowReader struct {
	csv    *csv.Reader
	header []string
	line   int
}

// NewRowReader reads the header from r and checks it names every card column
// exactly once and no other column twice.
// Extra columns are kept in each RawRow but otherwise ignored.
func NewRowReader(r io.Reader) (*RowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0 // every row must match the header width
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, structuralError(1, "", errors.New("empty file, no header line"))
		}
		return nil, structuralError(1, "", fmt.Errorf("read header: %w", err))
	}

	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	var dups []string
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
		if seen[names[i]] {
			dups = append(dups, names[i])
		}
		seen[names[i]] = true
	}
	// Rows are keyed by column name, so a repeated name would hide a value.
	if len(dups) > 0 {
		return nil, structuralError(1, "", fmt.Errorf("%w: %s", errDuplicateColumns, strings.Join(dups, ", ")))
	}

	var missing []string
	for _, col := range CardColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, structuralError(1, "", fmt.Errorf("%w: %s", errMissingColumns, strings.Join(missing, ", ")))
	}

	return &RowReader{csv: cr, header: names, line: 1}, nil
}

// Header returns the trimmed header column names.
func (r *RowReader) Header() []string {
	return r.header
}

// Line returns the source line on which the last returned record started.
func (r *RowReader) Line() int {
	return r.line
}

// Next returns the next row, or io.EOF when the input is exhausted.
// A width mismatch or malformed quoting is returned as a structural error.
func (r *RowReader) Next() (RawRow, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		line := r.line + 1
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			line = pe.StartLine
		}
		return nil, structuralError(line, "", err)
	}

	r.line, _ = r.csv.FieldPos(0)

	row := make(RawRow, len(r.header))
	for i, name := range r.header {
		row[name] = record[i]
	}
	return row, nil
}
