package parser

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
)

// Checksum is the xxhash64 fingerprint of content, hex encoded.
func Checksum(content string) string {
	digest := xxhash.New()
	_, _ = digest.WriteString(content)
	return hex.EncodeToString(digest.Sum(nil))
}

// Run parses content with the parser registered for det.Format. It splits
// lines, loads the schemas they need and finalizes the result. Empty input,
// an unknown format and, in strict mode, schema or extraction failures are
// fatal; everything else is recorded in the result.
func (r *Registry) Run(content string, det model.Detection, loader *schema.Loader, opts Options) (*model.ParseResult, error) {
	lines := SplitLines(content)
	if len(lines) == 0 {
		return nil, model.ErrEmptyInput
	}
	p := r.Get(det.Format)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, det.Format)
	}

	clock := opts.clock()
	start := clock()
	res := model.NewParseResult(clock)

	schemas, failures := LoadSchemas(loader, det, opts.SubType, lines)
	for _, f := range failures {
		if opts.Extract.Strict {
			return nil, fmt.Errorf("loading schema %s: %w", f.Name, f.Err)
		}
		res.AddWarning(model.IssueSchema, f.Line, "", fmt.Sprintf("no schema for %s: fields not decoded", f.Name))
	}

	data, err := p.Parse(lines, schemas, det, res, opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", det.Format, err)
	}
	data.Metadata.Checksum = Checksum(content)

	res.Finalize(data, clock().Sub(start))
	opts.logger().WithFields(logrus.Fields{
		"format":   det.Format,
		"bank":     det.BankCode,
		"success":  res.Success,
		"errors":   len(res.Errors),
		"warnings": len(res.Warnings),
		"elapsed":  res.Stats.ProcessingTime.Round(time.Microsecond),
	}).Info("parse finished")
	return res, nil
}

// Run parses content with the default registry.
func Run(content string, det model.Detection, loader *schema.Loader, opts Options) (*model.ParseResult, error) {
	return DefaultRegistry().Run(content, det, loader, opts)
}
