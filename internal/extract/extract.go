// Package extract slices fixed-width lines into typed field values.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
)

var (
	// ErrOutOfRange is returned in strict mode when a field ends past the line.
	ErrOutOfRange = errors.New("field position out of range")
	// ErrNotNumeric is returned in strict mode for non-digit numeric content.
	ErrNotNumeric = errors.New("non-numeric content")
)

// Options controls extraction. The zero value is lenient, untrimmed and
// skips the range check; use DefaultOptions for the usual setup.
type Options struct {
	Strict         bool
	Trim           bool
	ValidateRanges bool
}

// DefaultOptions is lenient with trimming and range checks on.
func DefaultOptions() Options {
	return Options{Trim: true, ValidateRanges: true}
}

// FieldError reports a strict-mode extraction failure.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("field %s: %v", e.Field, e.Err) }

// Unwrap returns the underlying sentinel.
func (e *FieldError) Unwrap() error { return e.Err }

// Fields decodes every schema field of line in declared order. In lenient
// mode it never fails: out-of-range fields are null and unconvertible
// numbers keep their raw text.
func Fields(line string, s *schema.Schema, opts Options) (map[string]model.Value, error) {
	out := make(map[string]model.Value)
	if s == nil {
		return out, nil
	}
	for _, f := range s.Fields() {
		v, err := Field(line, f, opts)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// Field decodes a single field of line.
func Field(line string, f schema.Field, opts Options) (model.Value, error) {
	raw, ok := Slice(line, f)
	if !ok && opts.ValidateRanges {
		if opts.Strict {
			return model.NullValue, &FieldError{Field: f.Name, Err: fmt.Errorf("%w: %d-%d on a %d-column line", ErrOutOfRange, f.Start(), f.End(), len(line))}
		}
		return model.NullValue, nil
	}
	if opts.Trim {
		raw = strings.TrimSpace(raw)
	}
	if raw == "" && f.Default != nil {
		raw = *f.Default
	}
	v, err := Convert(raw, f.Picture, opts.Strict)
	if err != nil {
		return model.NullValue, &FieldError{Field: f.Name, Err: err}
	}
	return v, nil
}

// Slice returns the columns of f, converting its 1-based inclusive range to
// a zero-based half-open one. ok is false when the field does not fit; the
// returned text is then whatever part of the field exists.
func Slice(line string, f schema.Field) (string, bool) {
	start, end := f.Start()-1, f.End()
	if start < 0 {
		start = 0
	}
	if end <= len(line) {
		return line[start:end], true
	}
	if start >= len(line) {
		return "", false
	}
	return line[start:], false
}

// Convert interprets raw according to a picture string. Unknown pictures
// keep the text. Non-digit numeric content is an error when strict and raw
// text otherwise.
func Convert(raw, picture string, strict bool) (model.Value, error) {
	p := schema.ParsePicture(picture)
	switch p.Kind {
	case schema.PictureText:
		return model.Value{Kind: model.KindText, Raw: raw, Text: raw}, nil
	case schema.PictureNumeric:
		return convertNumber(raw, 0, strict)
	case schema.PictureDecimal:
		return convertNumber(raw, p.Fraction, strict)
	default:
		return model.Value{Kind: model.KindRaw, Raw: raw, Text: raw}, nil
	}
}

func convertNumber(raw string, fraction int, strict bool) (model.Value, error) {
	digits, negative, ok := splitSign(strings.TrimSpace(raw))
	if !ok {
		if strict {
			return model.NullValue, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
		}
		return model.Value{Kind: model.KindRaw, Raw: raw, Text: raw}, nil
	}

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	n, err := decimal.NewFromString(digits)
	if err != nil {
		if strict {
			return model.NullValue, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
		}
		return model.Value{Kind: model.KindRaw, Raw: raw, Text: raw}, nil
	}
	if negative {
		n = n.Neg()
	}

	if fraction == 0 {
		text := digits
		if negative && digits != "0" {
			text = "-" + digits
		}
		return model.Value{Kind: model.KindNumeric, Raw: raw, Text: text, Number: n}, nil
	}
	n = n.Shift(int32(-fraction)).Round(int32(fraction))
	return model.Value{Kind: model.KindDecimal, Raw: raw, Text: n.StringFixed(int32(fraction)), Number: n}, nil
}

// splitSign accepts an optional leading sign followed by digits only. An
// empty string is a valid zero.
func splitSign(s string) (digits string, negative, ok bool) {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		negative = s[0] == '-'
		s = s[1:]
		if s == "" {
			return "", false, false
		}
	}
	if !IsDigits(s) {
		return "", false, false
	}
	return s, negative, true
}

// IsDigits reports whether s consists of ASCII digits only. The empty string
// counts.
func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
