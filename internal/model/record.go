package model

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cnab-dev/cnab/internal/schema"
)

// ValueKind tells how a field value was converted from its picture.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumeric
	KindText
	KindDecimal
	KindRaw // conversion failed or picture unknown; Raw is all there is
)

// Value is a decoded field.
type Value struct {
	Kind   ValueKind
	Raw    string          // slice as read (after optional trim / default)
	Text   string          // normalized text: digits without leading zeros, or the text itself
	Number decimal.Decimal // set for KindNumeric and KindDecimal
}

// NullValue is the value of a field that could not be read.
var NullValue = Value{Kind: KindNull}

// IsNull reports whether the field could not be read.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsNumber reports whether Number holds the value.
func (v Value) IsNumber() bool { return v.Kind == KindNumeric || v.Kind == KindDecimal }

// Int64 returns the numeric value when it fits in an int64.
func (v Value) Int64() (int64, bool) {
	if !v.IsNumber() || !v.Number.IsInteger() {
		return 0, false
	}
	n, err := strconv.ParseInt(v.Number.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindDecimal:
		return v.Number.String()
	default:
		return v.Text
	}
}

// MarshalJSON renders numbers as JSON numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumeric, KindDecimal:
		return []byte(v.Number.String()), nil
	default:
		return json.Marshal(v.Text)
	}
}

// Record is one decoded line. It is immutable after construction.
type Record struct {
	Type    RecordType
	Segment Segment
	Line    int

	names  []string
	values map[string]Value
	specs  map[string]schema.Field
}

// NewRecord builds a record. Only names declared by s are kept; a nil schema
// yields a record with an empty field mapping.
func NewRecord(rt RecordType, seg Segment, line int, s *schema.Schema, values map[string]Value) *Record {
	r := &Record{
		Type:    rt,
		Segment: seg,
		Line:    line,
		values:  make(map[string]Value),
		specs:   make(map[string]schema.Field),
	}
	if s == nil {
		return r
	}
	for _, f := range s.Fields() {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		r.names = append(r.names, f.Name)
		r.values[f.Name] = v
		r.specs[f.Name] = f
	}
	return r
}

// Field returns the value of a field.
func (r *Record) Field(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Spec returns the schema definition the field was decoded with.
func (r *Record) Spec(name string) (schema.Field, bool) {
	f, ok := r.specs[name]
	return f, ok
}

// Names returns field names in schema order.
func (r *Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len is the number of decoded fields.
func (r *Record) Len() int { return len(r.names) }

// Decimal returns the numeric value of a field, or zero.
func (r *Record) Decimal(name string) decimal.Decimal {
	v, ok := r.values[name]
	if !ok || !v.IsNumber() {
		return decimal.Zero
	}
	return v.Number
}

type recordJSON struct {
	Type    RecordType              `json:"recordType"`
	Segment Segment                 `json:"segment,omitempty"`
	Line    int                     `json:"lineNumber"`
	Fields  map[string]Value        `json:"fields"`
	Schema  map[string]schema.Field `json:"schema,omitempty"`
}

// MarshalJSON exposes the record with its field mapping and schema echo.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Type:    r.Type,
		Segment: r.Segment,
		Line:    r.Line,
		Fields:  r.values,
		Schema:  r.specs,
	})
}
