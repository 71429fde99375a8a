package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV writes the table with a header row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(texts(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV. All cells come back as text.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("reading export CSV: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	if len(records[0]) < numFixed || records[0][0] != colLine {
		return Table{}, fmt.Errorf("reading export CSV: unexpected header %v", records[0])
	}

	t := Table{Columns: records[0]}
	for _, rec := range records[1:] {
		row := make([]Cell, len(rec))
		for i, v := range rec {
			row[i] = Cell{Text: v}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// SaveCSV writes the table to path.
func SaveCSV(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, t); err != nil {
		return err
	}
	return f.Close()
}
