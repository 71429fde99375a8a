// Package ingest runs detection, parsing and validation over whole files
// and merges the outcome into one report per file.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/banks"
	"github.com/cnab-dev/cnab/internal/detect"
	"github.com/cnab-dev/cnab/internal/logging"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/parser"
	"github.com/cnab-dev/cnab/internal/runlog"
	"github.com/cnab-dev/cnab/internal/schema"
	"github.com/cnab-dev/cnab/internal/validate"
)

// Options configures a Service.
type Options struct {
	Parser   parser.Options
	Validate validate.Options
	// Format skips format detection when set.
	Format model.Format
	// SkipValidation runs the parser only.
	SkipValidation bool
	// Workers bounds ProcessAll's concurrency; values below 1 mean 1.
	Workers int
	Logger  logrus.FieldLogger
	Now     func() time.Time
	NewID   func() string
}

// DefaultOptions parses leniently, validates every layer and processes four
// files at a time.
func DefaultOptions() Options {
	return Options{
		Parser:   parser.DefaultOptions(),
		Validate: validate.DefaultOptions(),
		Workers:  4,
	}
}

// Report is the merged outcome for one file.
type Report struct {
	RunID      string                  `json:"runId"`
	File       string                  `json:"file"`
	Detection  model.Detection         `json:"detection"`
	Parse      *model.ParseResult      `json:"parse"`
	Validation *model.ValidationResult `json:"validation,omitempty"`
	Summary    *model.FinancialSummary `json:"financialSummary,omitempty"`
	Stats      map[string]int          `json:"recordTypes,omitempty"`
}

// Valid reports whether the file parsed and, when validated, passed.
func (r *Report) Valid() bool {
	if r.Parse == nil || !r.Parse.Success {
		return false
	}
	return r.Validation == nil || r.Validation.Valid
}

// Counts returns the errors and warnings of both results.
func (r *Report) Counts() (errs, warnings int) {
	if r.Parse != nil {
		errs += len(r.Parse.Errors)
		warnings += len(r.Parse.Warnings)
	}
	if r.Validation != nil {
		errs += len(r.Validation.Errors)
		warnings += len(r.Validation.Warnings)
	}
	return errs, warnings
}

// Entry converts the report to a run log row.
func (r *Report) Entry(at time.Time) runlog.Entry {
	errs, warnings := r.Counts()
	e := runlog.Entry{
		Timestamp: at,
		RunID:     r.RunID,
		File:      filepath.Base(r.File),
		Format:    string(r.Detection.Format),
		Bank:      r.Detection.BankCode,
		Valid:     r.Valid(),
		Errors:    errs,
		Warnings:  warnings,
	}
	if r.Parse != nil {
		e.Checksum = r.Parse.Metadata.Checksum
	}
	return e
}

// Service processes files against one schema loader and bank directory.
type Service struct {
	loader   *schema.Loader
	detector *detect.Detector
	registry *parser.Registry
	pipeline *validate.Pipeline
	opts     Options
	log      logrus.FieldLogger
}

// New creates a Service. A nil directory falls back to the built-in banks.
func New(loader *schema.Loader, dir *banks.Service, opts Options) *Service {
	if dir == nil {
		dir = banks.DefaultService()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	log := logging.OrDiscard(opts.Logger)
	if opts.Parser.Logger == nil {
		opts.Parser.Logger = log
	}
	if opts.Parser.Now == nil {
		opts.Parser.Now = opts.Now
	}
	if opts.Validate.Logger == nil {
		opts.Validate.Logger = log
	}
	if opts.Validate.Now == nil {
		opts.Validate.Now = opts.Now
	}
	if opts.Validate.Banks == nil {
		opts.Validate.Banks = dir
	}
	opts.Validate.Strict = opts.Validate.Strict || opts.Parser.Extract.Strict
	return &Service{
		loader:   loader,
		detector: detect.New(dir, log),
		registry: parser.DefaultRegistry(),
		pipeline: validate.New(loader, opts.Validate),
		opts:     opts,
		log:      log,
	}
}

// Process runs one file's content through detection, parsing and
// validation. Errors are the fatal cases only; findings are in the report.
func (s *Service) Process(name string, data []byte) (*Report, error) {
	content, err := detect.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var det model.Detection
	if s.opts.Format != "" {
		det, err = s.detector.DetectAs(content, s.opts.Format)
	} else {
		det, err = s.detector.Detect(content)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: detecting format: %w", name, err)
	}

	report := &Report{RunID: s.opts.NewID(), File: name, Detection: det}
	log := s.log.WithFields(logrus.Fields{"run": report.RunID, "file": name})

	res, err := s.registry.Run(content, det, s.loader, s.opts.Parser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	res.Metadata.RunID = report.RunID
	if res.Data != nil {
		res.Data.Metadata.RunID = report.RunID
		sum := res.Data.FinancialSummary()
		report.Summary = &sum
		report.Stats = res.Data.RecordTypeStats()
	}
	report.Parse = res

	if !s.opts.SkipValidation {
		v, err := s.pipeline.ValidateFile(content, det)
		if err != nil {
			return nil, fmt.Errorf("%s: validating: %w", name, err)
		}
		report.Validation = v
	}

	errs, warnings := report.Counts()
	log.WithFields(logrus.Fields{
		"format":   det.Format,
		"bank":     det.BankCode,
		"valid":    report.Valid(),
		"errors":   errs,
		"warnings": warnings,
	}).Info("file processed")
	return report, nil
}

// ProcessFile reads path and processes it.
func (s *Service) ProcessFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.Process(path, data)
}
