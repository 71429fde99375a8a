package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cnab-dev/cnab/internal/ingest"
)

func newValidateCommand(flags *globalFlags) *cobra.Command {
	var format string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and validate a CNAB file",
		Long:  "Parse and validate a CNAB file. The exit status is 1 when the file has errors.",
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
			svc, err := ws.service(opts)
			if err != nil {
				return err
			}

			report, err := svc.ProcessFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				err = writeJSON(out, report)
			} else {
				printReport(out, report)
			}
			if err != nil {
				return err
			}
			if !report.Valid() {
				return errInvalid
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "force the format (240 or 400) instead of detecting it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")

	return cmd
}

func printReport(w io.Writer, r *ingest.Report) {
	status := "VALID"
	if !r.Valid() {
		status = "INVALID"
	}
	det := r.Detection
	fmt.Fprintf(w, "%s: %s\n", r.File, status)
	fmt.Fprintf(w, "  format:  %s (confidence %.2f)\n", det.Format, det.Confidence)
	if det.BankName != "" {
		fmt.Fprintf(w, "  bank:    %s %s\n", det.BankCode, det.BankName)
	} else {
		fmt.Fprintf(w, "  bank:    %s\n", det.BankCode)
	}
	if r.Summary != nil {
		fmt.Fprintf(w, "  details: %d, total %s\n", r.Summary.Records, r.Summary.Total.StringFixed(2))
	}
	if v := r.Validation; v != nil {
		s := v.Summary
		fmt.Fprintf(w, "  checks:  %d passed, %d failed, %d warnings\n", s.PassedChecks, s.FailedChecks, s.WarningChecks)
	}

	for _, issues := range [][]string{issueLines(r, true), issueLines(r, false)} {
		for _, l := range issues {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
}

// issueLines lists parse issues followed by validation issues.
func issueLines(r *ingest.Report, errs bool) []string {
	var out []string
	prefix := "warning"
	if errs {
		prefix = "error"
	}
	if r.Parse != nil {
		list := r.Parse.Warnings
		if errs {
			list = r.Parse.Errors
		}
		for _, i := range list {
			out = append(out, prefix+" "+i.String())
		}
	}
	if r.Validation != nil {
		list := r.Validation.Warnings
		if errs {
			list = r.Validation.Errors
		}
		for _, i := range list {
			out = append(out, prefix+" "+i.String())
		}
	}
	return out
}
