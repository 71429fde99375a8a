package checkdigit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bankSlipBarcode     = "34199100000000123451090000900513700796012345"
	bankSlipDigitable   = "34191090080090051370607960123458910000000012345"
	collectionMod10     = "82670000000100012345678901234567890123456789"
	collectionMod10Line = "826700000001100012345672890123456786901234567898"
	collectionMod11     = "81840000000100012345678901234567890123456789"
	collectionMod11Line = "818400000001100012345675890123456785901234567894"
)

func TestMod10(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"261533", 4},
		{"01230067896", 3},
		{"0", 0},
		{"341910900", 8},
	}
	for _, tt := range tests {
		got, err := Mod10(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Mod10(%q)", tt.in)
	}

	_, err := Mod10("12a4")
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = Mod10("")
	assert.ErrorIs(t, err, ErrLength)
}

func TestMod11(t *testing.T) {
	got, err := Mod11("0019373700000001000500940144816060680935031")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = Mod11(bankSlipBarcode[:4] + bankSlipBarcode[5:])
	require.NoError(t, err)
	assert.Equal(t, 9, got)
}

func TestMod11Collection(t *testing.T) {
	got, err := Mod11Collection(collectionMod11[:3] + collectionMod11[4:])
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestMod_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		a, _ := Mod10(bankSlipDigitable)
		b, _ := Mod10(bankSlipDigitable)
		assert.Equal(t, a, b)
	}
}

func TestValidateBarcode(t *testing.T) {
	for _, code := range []string{bankSlipBarcode, collectionMod10, collectionMod11} {
		assert.NoError(t, ValidateBarcode(code), code)
	}

	bad := bankSlipBarcode[:4] + "0" + bankSlipBarcode[5:]
	assert.ErrorIs(t, ValidateBarcode(bad), ErrCheckDigit)
	assert.ErrorIs(t, ValidateBarcode(bankSlipBarcode[:43]), ErrLength)
	assert.ErrorIs(t, ValidateBarcode("3419910000000012345109000090051370079601234X"), ErrNotNumeric)
}

func TestBarcodeFromDigitableLine(t *testing.T) {
	tests := []struct {
		line, want string
	}{
		{bankSlipDigitable, bankSlipBarcode},
		{"34191.09008 00900.513706 07960.123458 9 10000000012345", bankSlipBarcode},
		{collectionMod10Line, collectionMod10},
		{collectionMod11Line, collectionMod11},
	}
	for _, tt := range tests {
		got, err := BarcodeFromDigitableLine(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got)
		assert.NoError(t, ValidateBarcode(got), "rebuilt barcode must validate")
	}
}

func TestValidateDigitableLine_SingleDigitCorruption(t *testing.T) {
	for _, line := range []string{bankSlipDigitable, collectionMod10Line, collectionMod11Line} {
		require.NoError(t, ValidateDigitableLine(line))
		for i := 0; i < len(line); i++ {
			corrupt := []byte(line)
			corrupt[i] = '0' + (corrupt[i]-'0'+1)%10
			assert.Error(t, ValidateDigitableLine(string(corrupt)), "%s corrupted at %d", line, i)
		}
	}
}

func TestValidateDigitableLine_Length(t *testing.T) {
	assert.ErrorIs(t, ValidateDigitableLine(bankSlipDigitable[:46]), ErrLength)
	assert.ErrorIs(t, ValidateDigitableLine("9"+collectionMod10Line[1:]), ErrLength, "48 digits must be a collection line")
}

func TestDigitableLine(t *testing.T) {
	got, err := DigitableLine(bankSlipBarcode)
	require.NoError(t, err)
	assert.Equal(t, bankSlipDigitable, got)

	got, err = DigitableLine(collectionMod11)
	require.NoError(t, err)
	assert.Equal(t, collectionMod11Line, got)
}

func TestParseBankSlip(t *testing.T) {
	slip, err := ParseBankSlip(bankSlipBarcode)
	require.NoError(t, err)
	assert.Equal(t, "341", slip.Bank)
	assert.Equal(t, "9", slip.Currency)
	assert.Equal(t, 1000, slip.DueFactor)
	assert.Equal(t, "123.45", slip.Amount.StringFixed(2))
	assert.Equal(t, "1090000900513700796012345", slip.FreeField)

	_, err = ParseBankSlip(collectionMod10)
	assert.ErrorIs(t, err, ErrKind)
}

func TestDueDate(t *testing.T) {
	d, ok := DueDate(1000, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC), d)

	d, ok = DueDate(1000, time.Date(2000, 7, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2000, 7, 3, 0, 0, 0, 0, time.UTC), d)

	d, ok = DueDate(9999, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 21, 0, 0, 0, 0, time.UTC), d)

	_, ok = DueDate(0, time.Now())
	assert.False(t, ok)
}
