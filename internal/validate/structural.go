package validate

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/cnab-dev/cnab/internal/extract"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/parser"
)

// 400 headers carry the bank code at 77-79; 240 lines start with it.
const (
	bank400Start = 77
	bank400End   = 79
)

func checkStructureLine(r *lineReport, line string, det model.Detection) {
	if want := det.Format.LineLength(); len(line) != want {
		r.errorf(model.IssueStructural, "", "line length is %d, expected %d", len(line), want)
	} else {
		r.pass()
	}

	rt, seg := model.Classify(det.Format, line)
	checkBankCode(r, line, rt, det)
	if r.full() {
		return
	}

	switch {
	case rt == model.RecordUnknown:
		var tag string
		if det.Format == model.Format240 && len(line) > model.Offset240RecordType {
			tag = line[model.Offset240RecordType : model.Offset240RecordType+1]
		} else if det.Format == model.Format400 && len(line) > 0 {
			tag = line[:1]
		}
		r.errorf(model.IssueStructural, "tipo_registro", "unknown record type %q", tag)
	case rt == model.RecordDetail && det.Format == model.Format240 && !seg.IsKnown():
		r.warnf(model.IssueStructural, "segmento", "unrecognized segment %q", string(seg))
	default:
		r.pass()
	}
	if r.full() {
		return
	}

	if i := controlChar(line); i >= 0 {
		r.errorf(model.IssueStructural, "", "control character 0x%02x at column %d", line[i], i+1)
	} else {
		r.pass()
	}
	if r.full() {
		return
	}

	checkEncoding(r, line)
}

func checkBankCode(r *lineReport, line string, rt model.RecordType, det model.Detection) {
	var code string
	switch det.Format {
	case model.Format240:
		code = col(line, 1, 3)
	case model.Format400:
		if rt != model.RecordHeader {
			return
		}
		code = col(line, bank400Start, bank400End)
	default:
		return
	}
	if len(code) != 3 || !extract.IsDigits(code) {
		r.errorf(model.IssueStructural, "codigo_banco", "bank code %q is not 3 digits", code)
		return
	}
	if det.BankCode != "" && code != det.BankCode {
		r.warnf(model.IssueStructural, "codigo_banco", "bank code %s differs from detected bank %s", code, det.BankCode)
		return
	}
	r.pass()
}

// controlChar returns the index of the first control byte, or -1.
func controlChar(line string) int {
	for i := 0; i < len(line); i++ {
		if c := line[i]; c < 0x20 || c == 0x7f {
			return i
		}
	}
	return -1
}

// checkEncoding flags UTF-8 text whose single-byte form has a different
// length: column positions would not line up with the layout.
func checkEncoding(r *lineReport, line string) {
	if !utf8.ValidString(line) || isASCII(line) {
		r.pass()
		return
	}
	enc, err := charmap.ISO8859_1.NewEncoder().String(line)
	if err != nil {
		r.warnf(model.IssueStructural, "", "characters outside ISO-8859-1: %v", err)
		return
	}
	if len(enc) != len(line) {
		r.warnf(model.IssueStructural, "", "multi-byte characters: %d bytes encode to %d columns", len(line), len(enc))
		return
	}
	r.pass()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func checkStructureFile(res *model.ValidationResult, lines []string, det model.Detection) {
	lengths := make(map[int]bool)
	for _, l := range lines {
		lengths[len(l)] = true
	}
	if len(lengths) > 1 {
		seen := make([]int, 0, len(lengths))
		for n := range lengths {
			seen = append(seen, n)
		}
		sort.Ints(seen)
		res.AddWarning(model.IssueStructural, 0, "", fmt.Sprintf("lines have different lengths: %s", joinInts(seen)))
	} else {
		res.Pass()
	}

	header, trailer := model.RecordFileHeader, model.RecordFileTrailer
	if det.Format == model.Format400 {
		header, trailer = model.RecordHeader, model.RecordTrailer
	}
	var hasHeader, hasTrailer bool
	for _, l := range lines {
		switch rt, _ := model.Classify(det.Format, l); rt {
		case header:
			hasHeader = true
		case trailer:
			hasTrailer = true
		}
	}
	if !hasHeader {
		res.AddError(model.IssueStructural, 0, "", "missing file header (record type 0)")
	} else {
		res.Pass()
	}
	if !hasTrailer {
		res.AddError(model.IssueStructural, 0, "", "missing file trailer (record type 9)")
	} else {
		res.Pass()
	}

	checkOrder(res, lines, det.Format)
}

// checkOrder walks the record types through the format's state machine and
// reports the first record that breaks the sequence.
func checkOrder(res *model.ValidationResult, lines []string, format model.Format) {
	switch format {
	case model.Format240:
		s := parser.WaitingFileHeader
		for i, l := range lines {
			rt, _ := model.Classify(format, l)
			next, _, ok := parser.Transition240(s, rt)
			if !ok {
				res.AddError(model.IssueStructural, i+1, "", fmt.Sprintf("record order: %s not expected while %s", rt, s))
				return
			}
			s = next
		}
	case model.Format400:
		s := parser.WaitingHeader
		for i, l := range lines {
			rt, _ := model.Classify(format, l)
			next, _, ok := parser.Transition400(s, rt)
			if !ok {
				res.AddError(model.IssueStructural, i+1, "", fmt.Sprintf("record order: %s not expected while %s", rt, s))
				return
			}
			s = next
		}
	}
	res.Pass()
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
