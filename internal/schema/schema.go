// Package schema loads and caches CNAB field layouts.
//
// A schema maps field names to a 1-based inclusive position pair and a
// picture ("9(5)", "X(30)", "9(13)V9(2)"). Schemas are read from a Source
// organized as {format}/{bank}[/{subType}]/{recordType} and are immutable
// once loaded.
package schema

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GenericBank is the bank directory consulted when a bank has no schema.
const GenericBank = "generic"

// ErrMalformed is returned for a schema document with no usable field.
var ErrMalformed = errors.New("malformed schema")

// Key identifies a schema.
type Key struct {
	Bank       string
	Format     string
	RecordType string
	SubType    string
}

// Path is the conventional location of the schema, without extension.
func (k Key) Path() string {
	if k.SubType != "" {
		return path.Join(k.Format, k.Bank, k.SubType, k.RecordType)
	}
	return path.Join(k.Format, k.Bank, k.RecordType)
}

func (k Key) String() string {
	return fmt.Sprintf("bank=%s format=%s record=%s subtype=%s", k.Bank, k.Format, k.RecordType, k.SubType)
}

// Field is one positional field.
type Field struct {
	Name        string   `json:"-"`
	Pos         [2]int   `json:"pos"`
	Picture     string   `json:"picture"`
	Default     *string  `json:"default,omitempty"`
	DateFormat  string   `json:"date_format,omitempty"`
	Required    bool     `json:"required,omitempty"`
	ValidValues []string `json:"valid_values,omitempty"`
}

// Start is the 1-based inclusive start position.
func (f Field) Start() int { return f.Pos[0] }

// End is the 1-based inclusive end position.
func (f Field) End() int { return f.Pos[1] }

// Width is the number of columns the field spans.
func (f Field) Width() int { return f.Pos[1] - f.Pos[0] + 1 }

// IsMetadataKey reports whether a document key is schema metadata rather
// than a field ("_metadata", "_description").
func IsMetadataKey(name string) bool { return strings.HasPrefix(name, "_") }

// Metadata records where and when a schema was loaded.
type Metadata struct {
	Source        string    `json:"source"`
	LoadedAt      time.Time `json:"loadedAt"`
	RequestedBank string    `json:"requestedBank"`
	ResolvedBank  string    `json:"resolvedBank"`
}

// Fallback reports whether the generic layout stood in for the bank's own.
func (m Metadata) Fallback() bool { return m.RequestedBank != m.ResolvedBank }

// Schema is an ordered, immutable set of fields.
type Schema struct {
	key    Key
	fields []Field
	byName map[string]int
	meta   Metadata
}

// New builds a schema from fields in declared order. At least one field is
// required.
func New(key Key, fields []Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s has no fields", ErrMalformed, key.Path())
	}
	s := &Schema{
		key:    key,
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrMalformed, f.Name)
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

func (s *Schema) withMetadata(m Metadata) *Schema {
	c := *s
	c.meta = m
	return &c
}

// Key returns the key the schema was requested under.
func (s *Schema) Key() Key { return s.key }

// Metadata returns load metadata.
func (s *Schema) Metadata() Metadata { return s.meta }

// Fields returns the fields in declared order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len is the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// PictureKind classifies a picture string.
type PictureKind int

const (
	PictureUnknown PictureKind = iota
	PictureNumeric
	PictureText
	PictureDecimal
)

// Picture is a parsed picture string.
type Picture struct {
	Kind     PictureKind
	Integer  int // digits before the implicit point, or the text/number width
	Fraction int // digits after the implicit point
}

// Length is the number of characters the picture describes.
func (p Picture) Length() int { return p.Integer + p.Fraction }

var (
	numericPicture = regexp.MustCompile(`^9\((\d+)\)$`)
	textPicture    = regexp.MustCompile(`^[Xx]\((\d+)\)$`)
	decimalPicture = regexp.MustCompile(`^9(?:\((\d+)\))?[Vv]9\((\d+)\)$`)
)

// ParsePicture parses "9(n)", "X(n)", "9(n)V9(m)" and "9V9(m)". Anything else
// yields PictureUnknown.
func ParsePicture(s string) Picture {
	s = strings.TrimSpace(s)
	if m := numericPicture.FindStringSubmatch(s); m != nil {
		return Picture{Kind: PictureNumeric, Integer: atoi(m[1])}
	}
	if m := textPicture.FindStringSubmatch(s); m != nil {
		return Picture{Kind: PictureText, Integer: atoi(m[1])}
	}
	if m := decimalPicture.FindStringSubmatch(s); m != nil {
		integer := 1
		if m[1] != "" {
			integer = atoi(m[1])
		}
		return Picture{Kind: PictureDecimal, Integer: integer, Fraction: atoi(m[2])}
	}
	return Picture{Kind: PictureUnknown}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
