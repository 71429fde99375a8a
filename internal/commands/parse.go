package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cnab-dev/cnab/internal/export"
	"github.com/cnab-dev/cnab/internal/ingest"
)

// errInvalid makes the process exit non-zero after the report is printed.
var errInvalid = errors.New("file is not valid")

func newParseCommand(flags *globalFlags) *cobra.Command {
	var format, csvPath, xlsxPath string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a CNAB file and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(flags)
			if err != nil {
				return err
			}
			opts, err := ws.options(format)
			if err != nil {
				return err
			}
			opts.SkipValidation = true
			svc, err := ws.service(opts)
			if err != nil {
				return err
			}

			report, err := svc.ProcessFile(args[0])
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report.Parse); err != nil {
				return err
			}
			if err := exportReport(report, csvPath, xlsxPath); err != nil {
				return err
			}
			if !report.Parse.Success {
				return errInvalid
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "force the format (240 or 400) instead of detecting it")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write detail records to a CSV file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write detail records to an XLSX workbook")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

// exportReport writes the parsed details to whichever paths are set.
func exportReport(report *ingest.Report, csvPath, xlsxPath string) error {
	if csvPath == "" && xlsxPath == "" {
		return nil
	}
	data := report.Parse.Data
	if data == nil {
		return fmt.Errorf("%s: nothing to export", report.File)
	}
	if csvPath != "" {
		if err := export.SaveCSV(csvPath, export.Details(data)); err != nil {
			return err
		}
	}
	if xlsxPath != "" {
		if err := export.SaveXLSX(xlsxPath, data); err != nil {
			return err
		}
	}
	return nil
}
