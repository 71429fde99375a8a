package model

import (
	"time"
)

// Stats records how long a parse took.
type Stats struct {
	ProcessingTime time.Duration `json:"processingTime"`
	LinesPerSecond float64       `json:"linesPerSecond"`
}

// ParseResult accumulates the outcome of one parse. It is single-owner and
// finalized once.
type ParseResult struct {
	Success  bool        `json:"success"`
	Data     *ParsedData `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Issues
	Stats Stats `json:"stats"`
}

// NewParseResult creates an empty parse result stamping issues with clock.
func NewParseResult(clock func() time.Time) *ParseResult {
	return &ParseResult{Issues: newIssues(clock)}
}

// AddError records a parse error.
func (r *ParseResult) AddError(typ IssueType, line int, field, msg string) {
	r.add(&r.Errors, typ, line, field, msg)
}

// AddWarning records a parse warning.
func (r *ParseResult) AddWarning(typ IssueType, line int, field, msg string) {
	r.add(&r.Warnings, typ, line, field, msg)
}

// Finalize attaches the data and derives Success. Calling it twice panics.
func (r *ParseResult) Finalize(data *ParsedData, elapsed time.Duration) {
	if r.finalized {
		panic("model: parse result already finalized")
	}
	r.Data = data
	if data != nil {
		data.Metadata.ProcessingTime = elapsed
		r.Metadata = data.Metadata
	}
	r.Stats.ProcessingTime = elapsed
	if elapsed > 0 {
		r.Stats.LinesPerSecond = float64(r.Metadata.TotalLines) / elapsed.Seconds()
	}
	r.Success = data != nil && !r.HasErrors()
	r.finalized = true
}

// FieldOutcome is the result of validating one field of one line.
type FieldOutcome struct {
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Summary counts checks by outcome.
type Summary struct {
	TotalChecks   int `json:"totalChecks"`
	PassedChecks  int `json:"passedChecks"`
	FailedChecks  int `json:"failedChecks"`
	WarningChecks int `json:"warningChecks"`
}

// ValidationResult accumulates findings of all validators for one file.
type ValidationResult struct {
	Valid bool `json:"valid"`
	Issues
	FieldValidations map[string]FieldOutcome `json:"fieldValidations"`
	Summary          Summary                 `json:"summary"`
}

// NewValidationResult creates an empty validation result stamping issues with clock.
func NewValidationResult(clock func() time.Time) *ValidationResult {
	return &ValidationResult{
		Issues:           newIssues(clock),
		FieldValidations: make(map[string]FieldOutcome),
	}
}

// AddError records a failed check.
func (r *ValidationResult) AddError(typ IssueType, line int, field, msg string) {
	r.add(&r.Errors, typ, line, field, msg)
	r.Summary.FailedChecks++
	r.Summary.TotalChecks++
}

// AddWarning records a check that passed with a warning.
func (r *ValidationResult) AddWarning(typ IssueType, line int, field, msg string) {
	r.add(&r.Warnings, typ, line, field, msg)
	r.Summary.WarningChecks++
	r.Summary.TotalChecks++
}

// Pass records a successful check.
func (r *ValidationResult) Pass() {
	if r.finalized {
		panic("model: result already finalized")
	}
	r.Summary.PassedChecks++
	r.Summary.TotalChecks++
}

// RecordField stores a per-field outcome under key.
func (r *ValidationResult) RecordField(key string, o FieldOutcome) {
	if r.finalized {
		panic("model: result already finalized")
	}
	r.FieldValidations[key] = o
}

// Finalize derives Valid. Calling it twice panics.
func (r *ValidationResult) Finalize() {
	if r.finalized {
		panic("model: validation result already finalized")
	}
	r.Valid = !r.HasErrors()
	r.finalized = true
}

// Finalized reports whether Finalize was called.
func (r *ValidationResult) Finalized() bool { return r.finalized }

// ErrorsOfType filters errors by issue type.
func (r *ValidationResult) ErrorsOfType(typ IssueType) []Issue {
	var out []Issue
	for _, e := range r.Errors {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// WarningsOfType filters warnings by issue type.
func (r *ValidationResult) WarningsOfType(typ IssueType) []Issue {
	var out []Issue
	for _, w := range r.Warnings {
		if w.Type == typ {
			out = append(out, w)
		}
	}
	return out
}
