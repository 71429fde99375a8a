package extract

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	def := "PADRAO"
	s, err := schema.New(schema.Key{Bank: "generic", Format: "cnab240", RecordType: "segment_p"}, []schema.Field{
		{Name: "codigo_banco", Pos: [2]int{1, 3}, Picture: "9(3)"},
		{Name: "nome", Pos: [2]int{4, 9}, Picture: "X(6)", Default: &def},
		{Name: "valor", Pos: [2]int{10, 16}, Picture: "9(5)V9(2)"},
		{Name: "cauda", Pos: [2]int{17, 20}, Picture: "9(4)"},
	})
	require.NoError(t, err)
	return s
}

func TestFields_Lenient(t *testing.T) {
	s := testSchema(t)
	values, err := Fields("341      0012345", s, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, model.KindNumeric, values["codigo_banco"].Kind)
	assert.Equal(t, "341", values["codigo_banco"].Text)
	assert.Equal(t, "PADRAO", values["nome"].Text, "blank field takes its default")
	assert.Equal(t, "123.45", values["valor"].Number.StringFixed(2))
	assert.True(t, values["cauda"].IsNull(), "field past end of line")
}

func TestFields_StrictOutOfRange(t *testing.T) {
	s := testSchema(t)
	_, err := Fields("341      0012345", s, Options{Strict: true, Trim: true, ValidateRanges: true})
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "cauda", fe.Field)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestFields_NoRangeCheckUsesPartialSlice(t *testing.T) {
	s := testSchema(t)
	values, err := Fields("341ABCDEF001234500", s, Options{Trim: true})
	require.NoError(t, err)
	assert.Equal(t, "0", values["cauda"].Text)
	assert.Equal(t, "ABCDEF", values["nome"].Text)
}

func TestFields_NilSchema(t *testing.T) {
	values, err := Fields("anything", nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		raw, picture string
		kind         model.ValueKind
		text         string
	}{
		{"00042", "9(5)", model.KindNumeric, "42"},
		{"00000", "9(5)", model.KindNumeric, "0"},
		{"", "9(5)", model.KindNumeric, "0"},
		{"     ", "9(5)", model.KindNumeric, "0"},
		{"4A2", "9(3)", model.KindRaw, "4A2"},
		{"000000000012345", "9(13)V9(2)", model.KindDecimal, "123.45"},
		{"000000000000000", "9(13)V9(2)", model.KindDecimal, "0.00"},
		{"-0150", "9(2)V9(2)", model.KindDecimal, "-1.50"},
		{"ABC  ", "X(5)", model.KindText, "ABC  "},
		{"???", "Z(3)", model.KindRaw, "???"},
	}
	for _, tt := range tests {
		v, err := Convert(tt.raw, tt.picture, false)
		require.NoError(t, err, "Convert(%q, %q)", tt.raw, tt.picture)
		assert.Equal(t, tt.kind, v.Kind, "Convert(%q, %q)", tt.raw, tt.picture)
		assert.Equal(t, tt.text, v.Text, "Convert(%q, %q)", tt.raw, tt.picture)
	}
}

func TestConvert_StrictNonNumeric(t *testing.T) {
	_, err := Convert("12X", "9(3)", true)
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = Convert("-", "9(3)", true)
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		value, format string
		want          time.Time
	}{
		{"15012024", DateDDMMYYYY, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"150124", DateDDMMYY, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"311299", DateDDMMYY, time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"010150", DateDDMMYY, time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"010151", DateDDMMYY, time.Date(1951, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"20240229", DateYYYYMMDD, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"240115", DateYYMMDD, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"00000000", DateDDMMYYYY, time.Time{}},
		{"        ", DateDDMMYYYY, time.Time{}},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.value, tt.format)
		require.NoError(t, err, "ParseDate(%q, %q)", tt.value, tt.format)
		assert.True(t, tt.want.Equal(got), "ParseDate(%q, %q) = %v", tt.value, tt.format, got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, v := range []string{"32012024", "29022023", "15132024", "1501202", "15A12024"} {
		_, err := ParseDate(v, DateDDMMYYYY)
		assert.ErrorIs(t, err, ErrInvalidDate, v)
	}

	_, err := ParseDate("15012024", "mm/dd/yyyy")
	assert.ErrorIs(t, err, ErrUnknownDateFormat)
}
