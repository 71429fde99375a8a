// Package export writes parsed detail records as CSV or XLSX.
package export

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cnab-dev/cnab/internal/model"
)

// Fixed leading columns of every export.
const (
	colLine       = "line"
	colRecordType = "record_type"
	colSegment    = "segment"
	numFixed      = 3
)

// Cell is one exported value. Number is set for numeric fields so that
// spreadsheets receive numbers rather than text.
type Cell struct {
	Text   string
	Number *decimal.Decimal
}

// Table is the flat view of detail records: the fixed columns followed by
// one column per field name in first-seen order.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Details builds the table of every detail record in file order.
func Details(data *model.ParsedData) Table {
	t := Table{Columns: []string{colLine, colRecordType, colSegment}}
	if data == nil {
		return t
	}
	details := data.AllDetails()

	index := make(map[string]int)
	for _, r := range details {
		for _, name := range r.Names() {
			if _, ok := index[name]; !ok {
				index[name] = len(t.Columns)
				t.Columns = append(t.Columns, name)
			}
		}
	}

	for _, r := range details {
		row := make([]Cell, len(t.Columns))
		row[0] = Cell{Text: strconv.Itoa(r.Line)}
		row[1] = Cell{Text: string(r.Type)}
		row[2] = Cell{Text: string(r.Segment)}
		for _, name := range r.Names() {
			v, _ := r.Field(name)
			c := Cell{Text: v.String()}
			if v.IsNumber() {
				n := v.Number
				c.Number = &n
			}
			row[index[name]] = c
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func texts(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Text
	}
	return out
}
