// Package detect guesses the layout and issuing bank of CNAB content.
package detect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/extract"
	"github.com/cnab-dev/cnab/internal/logging"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/parser"
)

// ErrUnknownFormat is returned when no line has a CNAB width.
var ErrUnknownFormat = errors.New("no line is 240 or 400 columns wide")

// BankNamer resolves a bank code to a display name.
type BankNamer interface {
	Name(code string) string
}

// Detector reads widths and header positions; it never parses fields.
type Detector struct {
	banks BankNamer
	log   logrus.FieldLogger
}

// New creates a Detector. banks may be nil, in which case names are left
// empty.
func New(banks BankNamer, log logrus.FieldLogger) *Detector {
	return &Detector{banks: banks, log: logging.OrDiscard(log)}
}

// Detect picks the format whose width most lines have. Confidence is the
// share of lines with that width.
func (d *Detector) Detect(content string) (model.Detection, error) {
	lines := parser.SplitLines(content)
	if len(lines) == 0 {
		return model.Detection{}, model.ErrEmptyInput
	}

	var n240, n400 int
	for _, l := range lines {
		switch len(l) {
		case model.Format240.LineLength():
			n240++
		case model.Format400.LineLength():
			n400++
		}
	}
	if n240 == 0 && n400 == 0 {
		return model.Detection{}, fmt.Errorf("%w (first line is %d)", ErrUnknownFormat, len(lines[0]))
	}

	format := model.Format240
	if n400 > n240 {
		format = model.Format400
	}
	return d.detect(lines, format), nil
}

// DetectAs fills bank and confidence for a format chosen by the caller.
func (d *Detector) DetectAs(content string, format model.Format) (model.Detection, error) {
	lines := parser.SplitLines(content)
	if len(lines) == 0 {
		return model.Detection{}, model.ErrEmptyInput
	}
	if format.LineLength() == 0 {
		return model.Detection{}, fmt.Errorf("%w: %q", parser.ErrUnsupportedFormat, format)
	}
	return d.detect(lines, format), nil
}

func (d *Detector) detect(lines []string, format model.Format) model.Detection {
	width := format.LineLength()
	matching := 0
	for _, l := range lines {
		if len(l) == width {
			matching++
		}
	}

	det := model.Detection{
		Format:     format,
		BankCode:   BankCode(lines, format),
		Confidence: float64(matching) / float64(len(lines)),
	}
	if d.banks != nil && det.BankCode != "" {
		det.BankName = d.banks.Name(det.BankCode)
	}

	d.log.WithFields(logrus.Fields{
		"format":     det.Format,
		"bank":       det.BankCode,
		"confidence": det.Confidence,
	}).Debug("format detected")
	return det
}

// BankCode reads the bank code from the file header: columns 1-3 of a 240
// header, 77-79 of a 400 header. When the first line is not a header the
// first header found is used. Non-numeric codes yield "".
func BankCode(lines []string, format model.Format) string {
	header := model.RecordFileHeader
	start, end := 1, 3
	if format == model.Format400 {
		header = model.RecordHeader
		start, end = 77, 79
	}
	for _, l := range lines {
		if rt, _ := model.Classify(format, l); rt != header {
			continue
		}
		if len(l) < end {
			return ""
		}
		code := l[start-1 : end]
		if !extract.IsDigits(code) {
			return ""
		}
		return code
	}
	return ""
}

// FixWidth pads short lines with spaces and cuts long ones so that every line
// has the format's width. Lines are joined with CRLF.
func FixWidth(content string, format model.Format) (string, int, error) {
	width := format.LineLength()
	if width == 0 {
		return "", 0, fmt.Errorf("%w: %q", parser.ErrUnsupportedFormat, format)
	}
	lines := parser.SplitLines(content)
	if len(lines) == 0 {
		return "", 0, model.ErrEmptyInput
	}

	var b strings.Builder
	changed := 0
	for _, l := range lines {
		switch {
		case len(l) < width:
			l += strings.Repeat(" ", width-len(l))
			changed++
		case len(l) > width:
			l = l[:width]
			changed++
		}
		b.WriteString(l)
		b.WriteString("\r\n")
	}
	return b.String(), changed, nil
}
