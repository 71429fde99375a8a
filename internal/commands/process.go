package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cnab-dev/cnab/internal/inbox"
	"github.com/cnab-dev/cnab/internal/ingest"
	"github.com/cnab-dev/cnab/internal/runlog"
)

const exportsDir = "exports"

func newProcessCommand(flags *globalFlags) *cobra.Command {
	var exportAs string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Parse and validate every file in the import directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch exportAs {
			case "", "csv", "xlsx":
			default:
				return fmt.Errorf("unknown export format %q (want csv or xlsx)", exportAs)
			}
			ws, err := openWorkspace(flags)
			if err != nil {
				return err
			}
			return runProcess(cmd, ws, exportAs, dryRun)
		},
	}

	cmd.Flags().StringVar(&exportAs, "export", "", "also export details to exports/ (csv or xlsx)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without writing the run log or moving files")

	return cmd
}

func runProcess(cmd *cobra.Command, ws *workspace, exportAs string, dryRun bool) error {
	out := cmd.OutOrStdout()

	files, err := inbox.Scan(ws.dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No files to process.")
		return nil
	}

	opts, err := ws.options("")
	if err != nil {
		return err
	}
	svc, err := ws.service(opts)
	if err != nil {
		return err
	}

	previous, err := runlog.Read(ws.dir)
	if err != nil {
		return err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	results := svc.ProcessAll(cmd.Context(), paths)

	var entries []runlog.Entry
	var valid, invalid, failed int
	now := time.Now()
	for i, res := range results {
		name := files[i].Name
		if res.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: FAILED (%v)\n", name, res.Err)
			continue
		}

		r := res.Report
		errs, warnings := r.Counts()
		status := "VALID"
		if r.Valid() {
			valid++
		} else {
			invalid++
			status = "INVALID"
		}
		fmt.Fprintf(out, "%s: %s (%d errors, %d warnings)\n", name, status, errs, warnings)

		entry := r.Entry(now)
		if runlog.Seen(previous, entry.Checksum) {
			ws.log.WithFields(logrus.Fields{"file": name, "checksum": entry.Checksum}).
				Warn("content already processed in an earlier run")
		}
		if dryRun {
			continue
		}

		if exportAs != "" && r.Parse.Data != nil {
			if err := exportTo(ws.dir, name, exportAs, r); err != nil {
				return err
			}
		}
		entries = append(entries, entry)
		if err := inbox.MarkProcessed(ws.dir, name); err != nil {
			return err
		}
	}

	if len(entries) > 0 {
		if err := runlog.Append(ws.dir, entries); err != nil {
			return fmt.Errorf("writing run log: %w", err)
		}
	}

	fmt.Fprintf(out, "Processed %d files: %d valid, %d invalid, %d failed\n", len(files), valid, invalid, failed)
	if failed > 0 {
		return fmt.Errorf("%d files could not be processed", failed)
	}
	return nil
}

func exportTo(repoRoot, name, kind string, r *ingest.Report) error {
	dir := filepath.Join(repoRoot, exportsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating exports dir: %w", err)
	}
	base := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name)))
	if kind == "csv" {
		return exportReport(r, base+".csv", "")
	}
	return exportReport(r, "", base+".xlsx")
}
