// Package parser turns CNAB lines into structured records by driving the
// 240 and 400 state machines over them.
package parser

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/extract"
	"github.com/cnab-dev/cnab/internal/logging"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
)

// ErrUnsupportedFormat is returned when no parser handles the detected format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Parser builds ParsedData from the lines of one file. Problems are recorded
// in res; the returned error is reserved for fatal strict-mode failures.
type Parser interface {
	Parse(lines []string, schemas Schemas, det model.Detection, res *model.ParseResult, opts Options) (*model.ParsedData, error)
	Format() model.Format
}

// Options configures a parse.
type Options struct {
	Extract extract.Options
	SubType string
	Logger  logrus.FieldLogger
	Now     func() time.Time
}

// DefaultOptions is lenient extraction with trimming and range checks.
func DefaultOptions() Options {
	return Options{Extract: extract.DefaultOptions()}
}

func (o Options) logger() logrus.FieldLogger { return logging.OrDiscard(o.Logger) }

func (o Options) clock() func() time.Time {
	if o.Now == nil {
		return time.Now
	}
	return o.Now
}

// Schemas maps schema names ("file_header", "segment_p") to schemas.
type Schemas map[string]*schema.Schema

// For returns the schema of a record type, or nil.
func (s Schemas) For(rt model.RecordType, seg model.Segment) *schema.Schema {
	return s[model.SchemaName(rt, seg)]
}

// SplitLines breaks content into lines, dropping line terminators and blank
// lines. Trailing spaces are kept: they are part of the fixed-width record.
func SplitLines(content string) []string {
	content = strings.TrimRight(content, "\x1a")
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// SchemaFailure is a record type whose schema could not be loaded.
type SchemaFailure struct {
	Name string
	Line int
	Err  error
}

// LoadSchemas loads one schema per distinct record type seen in lines, in
// first-seen order. Failures are returned, not fatal: the caller decides.
func LoadSchemas(l *schema.Loader, det model.Detection, subType string, lines []string) (Schemas, []SchemaFailure) {
	bank := det.BankCode
	if bank == "" {
		bank = schema.GenericBank
	}
	out := make(Schemas)
	seen := make(map[string]bool)
	var failures []SchemaFailure
	for i, line := range lines {
		rt, seg := model.Classify(det.Format, line)
		if rt == model.RecordUnknown {
			continue
		}
		name := model.SchemaName(rt, seg)
		if seen[name] {
			continue
		}
		seen[name] = true
		s, err := l.Load(bank, string(det.Format), name, subType)
		if err != nil {
			failures = append(failures, SchemaFailure{Name: name, Line: i + 1, Err: err})
			continue
		}
		out[name] = s
	}
	return out, failures
}

// Registry holds parsers by format.
type Registry struct {
	parsers map[model.Format]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[model.Format]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	if _, ok := r.parsers[p.Format()]; ok {
		panic("duplicate parser format: " + string(p.Format()))
	}
	r.parsers[p.Format()] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format model.Format) Parser {
	return r.parsers[format]
}

// DefaultRegistry returns a registry with the 240 and 400 parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CNAB240{})
	r.Register(&CNAB400{})
	return r
}

// decode extracts a line into a record. Only strict extraction fails.
func decode(line string, n int, rt model.RecordType, seg model.Segment, s *schema.Schema, opts Options) (*model.Record, error) {
	values, err := extract.Fields(line, s, opts.Extract)
	if err != nil {
		return nil, err
	}
	return model.NewRecord(rt, seg, n, s, values), nil
}
