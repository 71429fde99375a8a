// Package runlog keeps an append-only CSV record of processed CNAB files.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one processed file.
type Entry struct {
	Timestamp time.Time
	RunID     string
	File      string
	Format    string
	Bank      string
	Valid     bool
	Errors    int
	Warnings  int
	Checksum  string
}

// Header is the CSV header for runs.csv.
const Header = "timestamp,run_id,file,format,bank,valid,errors,warnings,checksum"

const (
	numFields    = 9
	logDir       = "logs"
	logFile      = "logs/runs.csv"
	colTimestamp = 0
	colRunID     = 1
	colFile      = 2
	colFormat    = 3
	colBank      = 4
	colValid     = 5
	colErrors    = 6
	colWarnings  = 7
	colChecksum  = 8
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colFile] = e.File
	row[colFormat] = e.Format
	row[colBank] = e.Bank
	row[colValid] = strconv.FormatBool(e.Valid)
	row[colErrors] = strconv.Itoa(e.Errors)
	row[colWarnings] = strconv.Itoa(e.Warnings)
	row[colChecksum] = e.Checksum
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	valid, err := strconv.ParseBool(record[colValid])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing valid %q: %w", record[colValid], err)
	}
	errs, err := strconv.Atoi(record[colErrors])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing errors %q: %w", record[colErrors], err)
	}
	warnings, err := strconv.Atoi(record[colWarnings])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing warnings %q: %w", record[colWarnings], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		File:      record[colFile],
		Format:    record[colFormat],
		Bank:      record[colBank],
		Valid:     valid,
		Errors:    errs,
		Warnings:  warnings,
		Checksum:  record[colChecksum],
	}, nil
}

// Path returns the run log location inside a workspace.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, logFile)
}

// Append writes entries to <repoRoot>/logs/runs.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(repoRoot)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/runs.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// Seen reports whether a file with checksum was already processed.
func Seen(entries []Entry, checksum string) bool {
	for _, e := range entries {
		if checksum != "" && e.Checksum == checksum {
			return true
		}
	}
	return false
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
