package export

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/cnab-dev/cnab/internal/model"
)

// Sheet names of the XLSX export.
const (
	DetailsSheet = "Details"
	SummarySheet = "Summary"
)

// WriteXLSX writes a workbook with the details table and a financial
// summary of data.
func WriteXLSX(w io.Writer, data *model.ParsedData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DetailsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeDetails(f, Details(data)); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	if err := writeSummary(f, data); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeDetails(f *excelize.File, t Table) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, name := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(DetailsSheet, cell, name); err != nil {
			return fmt.Errorf("writing header %s: %w", name, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(DetailsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			var value any = v.Text
			if v.Number != nil {
				value = v.Number.InexactFloat64()
			}
			if err := f.SetCellValue(DetailsSheet, cell, value); err != nil {
				return fmt.Errorf("writing %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(DetailsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, data *model.ParsedData) error {
	rows := [][]any{{"metric", "value"}}
	if data != nil {
		meta := data.Metadata
		sum := data.FinancialSummary()
		rows = append(rows,
			[]any{"format", string(meta.Format)},
			[]any{"bank", meta.BankCode},
			[]any{"lines", meta.TotalLines},
			[]any{"batches", meta.TotalBatches},
			[]any{"details", sum.Records},
			[]any{"total", sum.Total.InexactFloat64()},
		)
		segments := make([]string, 0, len(sum.BySegment))
		for s := range sum.BySegment {
			segments = append(segments, string(s))
		}
		sort.Strings(segments)
		for _, s := range segments {
			rows = append(rows, []any{"total segment " + s, sum.BySegment[model.Segment(s)].InexactFloat64()})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, data *model.ParsedData) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	if err := WriteXLSX(out, data); err != nil {
		return err
	}
	return out.Close()
}
