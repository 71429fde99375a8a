package validate

import (
	"fmt"
	"strings"

	"github.com/cnab-dev/cnab/internal/extract"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
)

type finding struct {
	warning bool
	msg     string
}

func checkFieldsLine(r *lineReport, line string, s *schema.Schema) {
	for _, f := range s.Fields() {
		if r.full() {
			return
		}
		raw, ok := extract.Slice(line, f)
		if !ok {
			r.errorf(model.IssueField, f.Name, "positions %d-%d beyond end of %d-column line", f.Start(), f.End(), len(line))
			recordOutcome(r, f.Name, raw, "beyond end of line")
			continue
		}

		findings := checkField(raw, f)
		msg := ""
		for _, fd := range findings {
			if fd.warning {
				r.warnf(model.IssueField, f.Name, "%s", fd.msg)
				continue
			}
			r.errorf(model.IssueField, f.Name, "%s", fd.msg)
			if msg == "" {
				msg = fd.msg
			}
		}
		if msg == "" {
			r.pass()
		}
		recordOutcome(r, f.Name, raw, msg)
	}
}

func recordOutcome(r *lineReport, name, raw, msg string) {
	if r.full() {
		return
	}
	r.res.RecordField(fmt.Sprintf("%d:%s", r.line, name), model.FieldOutcome{
		Line:    r.line,
		Field:   name,
		Value:   strings.TrimSpace(raw),
		Valid:   msg == "",
		Message: msg,
	})
}

// ValidateField checks a single value against the named field of s, outside
// any line. The value is taken as the field content; shorter values are
// allowed, longer ones are not.
func ValidateField(value string, s *schema.Schema, name string) model.FieldOutcome {
	out := model.FieldOutcome{Field: name, Value: strings.TrimSpace(value)}
	if schema.IsMetadataKey(name) {
		out.Valid = true
		out.Message = "metadata key"
		return out
	}
	if s == nil {
		out.Message = "no schema"
		return out
	}
	f, ok := s.Field(name)
	if !ok {
		out.Message = fmt.Sprintf("unknown field %q", name)
		return out
	}

	out.Valid = true
	var warnings []string
	for _, fd := range checkField(value, f) {
		if fd.warning {
			warnings = append(warnings, fd.msg)
			continue
		}
		if out.Valid {
			out.Valid = false
			out.Message = fd.msg
		}
	}
	if out.Valid && len(warnings) > 0 {
		out.Message = strings.Join(warnings, "; ")
	}
	return out
}

// checkField runs the per-field checks: picture shape, digit content,
// required-ness, date format and allowed values.
func checkField(raw string, f schema.Field) []finding {
	var out []finding
	pic := schema.ParsePicture(f.Picture)
	switch {
	case pic.Kind == schema.PictureUnknown:
		out = append(out, finding{warning: true, msg: fmt.Sprintf("unrecognized picture %q", f.Picture)})
	case pic.Length() != f.Width():
		out = append(out, finding{warning: true, msg: fmt.Sprintf("picture %s is %d wide but positions %d-%d span %d",
			f.Picture, pic.Length(), f.Start(), f.End(), f.Width())})
	}

	if len(raw) > f.Width() {
		out = append(out, finding{msg: fmt.Sprintf("value is %d characters, field holds %d", len(raw), f.Width())})
		return out
	}

	value := strings.TrimSpace(raw)
	numeric := pic.Kind == schema.PictureNumeric || pic.Kind == schema.PictureDecimal
	if numeric && value != "" && !extract.IsDigits(value) {
		out = append(out, finding{msg: fmt.Sprintf("non-numeric content %q for picture %s", value, f.Picture)})
		return out
	}

	if value == "" {
		if f.Required && f.Default == nil {
			out = append(out, finding{msg: "required field is empty"})
		}
		return out
	}

	if f.DateFormat != "" {
		if _, err := extract.ParseDate(value, f.DateFormat); err != nil {
			out = append(out, finding{msg: err.Error()})
		}
	}

	if len(f.ValidValues) > 0 && !allowed(value, f.ValidValues, numeric) {
		out = append(out, finding{msg: fmt.Sprintf("value %q not in %v", value, f.ValidValues)})
	}
	return out
}

func allowed(value string, valid []string, numeric bool) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
		if numeric && normalizeDigits(value) == normalizeDigits(v) {
			return true
		}
	}
	return false
}

func normalizeDigits(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "0")
	if s == "" {
		return "0"
	}
	return s
}
