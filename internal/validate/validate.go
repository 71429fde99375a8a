// Package validate checks CNAB files in four layers: structure, fields,
// file integrity and business rules. All layers read the same lines and
// write into one ValidationResult; none depends on another's findings.
package validate

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/banks"
	"github.com/cnab-dev/cnab/internal/logging"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/parser"
	"github.com/cnab-dev/cnab/internal/schema"
)

// BankDirectory answers whether a bank code is known.
type BankDirectory interface {
	Known(code string) bool
}

// Options selects the layers to run and their limits.
type Options struct {
	Structural bool
	Field      bool
	Integrity  bool
	Business   bool

	// MaxErrorsPerLine stops checking a line once it has this many errors.
	// Zero means no limit.
	MaxErrorsPerLine int
	SubType          string
	// Strict makes a missing schema fatal.
	Strict bool

	Banks  BankDirectory
	Rules  Rules
	Logger logrus.FieldLogger
	Now    func() time.Time
}

// DefaultOptions runs every layer with a cap of 10 errors per line.
func DefaultOptions() Options {
	return Options{
		Structural:       true,
		Field:            true,
		Integrity:        true,
		Business:         true,
		MaxErrorsPerLine: 10,
	}
}

// Pipeline validates files against schemas from one loader.
type Pipeline struct {
	loader *schema.Loader
	opts   Options
	log    logrus.FieldLogger
}

// New creates a Pipeline. Nil Banks and Rules fall back to the built-in
// bank list and DefaultRules.
func New(loader *schema.Loader, opts Options) *Pipeline {
	if opts.Banks == nil {
		opts.Banks = banks.DefaultService()
	}
	if opts.Rules == nil {
		opts.Rules = DefaultRules()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{loader: loader, opts: opts, log: logging.OrDiscard(opts.Logger)}
}

// ValidateFile runs the enabled layers over content. Only empty input and,
// in strict mode, a missing schema are returned as errors; every finding
// about the file itself is recorded in the result.
func (p *Pipeline) ValidateFile(content string, det model.Detection) (*model.ValidationResult, error) {
	lines := parser.SplitLines(content)
	if len(lines) == 0 {
		return nil, model.ErrEmptyInput
	}
	start := time.Now()
	res := model.NewValidationResult(p.opts.Now)

	schemas, failures := parser.LoadSchemas(p.loader, det, p.opts.SubType, lines)
	for _, f := range failures {
		if p.opts.Strict {
			return nil, fmt.Errorf("loading schema %s: %w", f.Name, f.Err)
		}
		res.AddWarning(model.IssueSchema, f.Line, "", fmt.Sprintf("no schema for %s: field checks skipped", f.Name))
	}

	for i, line := range lines {
		r := newLineReport(res, i+1, p.opts.MaxErrorsPerLine)
		if p.opts.Structural {
			checkStructureLine(r, line, det)
		}
		if p.opts.Field && !r.full() {
			rt, seg := model.Classify(det.Format, line)
			if s := schemas.For(rt, seg); s != nil {
				checkFieldsLine(r, line, s)
			}
		}
	}

	if p.opts.Structural {
		checkStructureFile(res, lines, det)
	}
	if p.opts.Integrity {
		checkIntegrity(res, lines, det)
	}
	if p.opts.Business {
		checkBusiness(res, lines, det, p.opts)
	}

	res.Finalize()
	p.log.WithFields(logrus.Fields{
		"format":   det.Format,
		"bank":     det.BankCode,
		"lines":    len(lines),
		"valid":    res.Valid,
		"errors":   len(res.Errors),
		"warnings": len(res.Warnings),
		"elapsed":  time.Since(start).Round(time.Microsecond),
	}).Info("validation finished")
	return res, nil
}

// lineReport writes findings for one line and enforces the per-line cap.
// Once the cap is reached a single truncation warning is added and full
// reports true; callers skip their remaining checks for the line.
type lineReport struct {
	res       *model.ValidationResult
	line      int
	limit     int
	errors    int
	truncated bool
}

func newLineReport(res *model.ValidationResult, line, limit int) *lineReport {
	return &lineReport{res: res, line: line, limit: limit}
}

func (r *lineReport) full() bool { return r.truncated }

func (r *lineReport) errorf(typ model.IssueType, field, format string, args ...any) {
	if r.truncated {
		return
	}
	r.res.AddError(typ, r.line, field, fmt.Sprintf(format, args...))
	r.errors++
	if r.limit > 0 && r.errors >= r.limit {
		r.truncated = true
		r.res.AddWarning(typ, r.line, "", fmt.Sprintf("%d errors on this line, remaining checks skipped", r.errors))
	}
}

func (r *lineReport) warnf(typ model.IssueType, field, format string, args ...any) {
	if r.truncated {
		return
	}
	r.res.AddWarning(typ, r.line, field, fmt.Sprintf(format, args...))
}

func (r *lineReport) pass() {
	if !r.truncated {
		r.res.Pass()
	}
}
