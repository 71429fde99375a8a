package checkdigit

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two barcode families.
type Kind string

const (
	KindBankSlip   Kind = "bank_slip"
	KindCollection Kind = "collection"
)

// Lengths of the accepted forms.
const (
	BarcodeLength             = 44
	BankSlipDigitableLength   = 47
	CollectionDigitableLength = 48
)

const (
	bankSlipCheckIndex     = 4
	collectionCheckIndex   = 3
	collectionValueIDIndex = 2
	collectionBlockLength  = 11
	collectionProduct      = '8'
)

// KindOf reports which family a barcode or digitable line belongs to.
// Collection codes start with product id 8.
func KindOf(code string) Kind {
	if strings.HasPrefix(Normalize(code), string(collectionProduct)) {
		return KindCollection
	}
	return KindBankSlip
}

// Normalize drops the separators people type into digitable lines.
func Normalize(code string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '\t':
			return -1
		}
		return r
	}, code)
}

// ValidateBarcode checks a 44-digit barcode of either family.
func ValidateBarcode(code string) error {
	code = Normalize(code)
	if len(code) != BarcodeLength {
		return fmt.Errorf("%w: barcode has %d digits, want %d", ErrLength, len(code), BarcodeLength)
	}
	if err := numeric(code); err != nil {
		return err
	}
	if KindOf(code) == KindCollection {
		return validateCollectionBarcode(code)
	}
	return validateBankSlipBarcode(code)
}

func validateBankSlipBarcode(code string) error {
	want, err := BankSlipCheckDigit(code)
	if err != nil {
		return err
	}
	if got := code[bankSlipCheckIndex]; got != digit(want) {
		return fmt.Errorf("%w: barcode digit %c, computed %d", ErrCheckDigit, got, want)
	}
	return nil
}

func validateCollectionBarcode(code string) error {
	want, err := CollectionCheckDigit(code)
	if err != nil {
		return err
	}
	if got := code[collectionCheckIndex]; got != digit(want) {
		return fmt.Errorf("%w: barcode digit %c, computed %d", ErrCheckDigit, got, want)
	}
	return nil
}

// BankSlipCheckDigit computes the general check digit of a 44-digit bank-slip
// barcode, ignoring whatever sits in the check position.
func BankSlipCheckDigit(code string) (int, error) {
	if len(code) != BarcodeLength {
		return 0, fmt.Errorf("%w: barcode has %d digits, want %d", ErrLength, len(code), BarcodeLength)
	}
	return Mod11(code[:bankSlipCheckIndex] + code[bankSlipCheckIndex+1:])
}

// CollectionCheckDigit computes the general check digit of a 44-digit
// collection barcode. The value id (third digit) picks the algorithm.
func CollectionCheckDigit(code string) (int, error) {
	if len(code) != BarcodeLength {
		return 0, fmt.Errorf("%w: barcode has %d digits, want %d", ErrLength, len(code), BarcodeLength)
	}
	return collectionModule(code)(code[:collectionCheckIndex] + code[collectionCheckIndex+1:])
}

func collectionModule(code string) func(string) (int, error) {
	switch code[collectionValueIDIndex] {
	case '6', '7':
		return Mod10
	default:
		return Mod11Collection
	}
}

// ValidateDigitableLine checks every field check digit of a 47-digit
// bank-slip or 48-digit collection digitable line, then rebuilds the barcode
// and validates that too.
func ValidateDigitableLine(line string) error {
	barcode, err := BarcodeFromDigitableLine(line)
	if err != nil {
		return err
	}
	if err := ValidateBarcode(barcode); err != nil {
		return fmt.Errorf("rebuilt barcode: %w", err)
	}
	return nil
}

// BarcodeFromDigitableLine rebuilds the 44-digit barcode a digitable line
// encodes after verifying its field check digits.
func BarcodeFromDigitableLine(line string) (string, error) {
	line = Normalize(line)
	if err := numeric(line); err != nil {
		return "", err
	}
	switch {
	case len(line) == CollectionDigitableLength && line[0] == collectionProduct:
		return collectionFromDigitable(line)
	case len(line) == BankSlipDigitableLength:
		return bankSlipFromDigitable(line)
	default:
		return "", fmt.Errorf("%w: digitable line has %d digits, want %d or %d",
			ErrLength, len(line), BankSlipDigitableLength, CollectionDigitableLength)
	}
}

// bank-slip digitable line fields: 1 = [0,10), 2 = [10,21), 3 = [21,32),
// 4 = general check digit, 5 = due factor and value.
func bankSlipFromDigitable(line string) (string, error) {
	fields := []string{line[0:10], line[10:21], line[21:32]}
	for i, f := range fields {
		want, err := Mod10(f[:len(f)-1])
		if err != nil {
			return "", err
		}
		if got := f[len(f)-1]; got != digit(want) {
			return "", fmt.Errorf("%w: field %d digit %c, computed %d", ErrCheckDigit, i+1, got, want)
		}
	}
	var b strings.Builder
	b.Grow(BarcodeLength)
	b.WriteString(line[0:4])
	b.WriteByte(line[32])
	b.WriteString(line[33:47])
	b.WriteString(line[4:9])
	b.WriteString(line[10:20])
	b.WriteString(line[21:31])
	return b.String(), nil
}

// collection digitable lines are four blocks of 11 digits, each followed by
// its own check digit computed with the barcode's module.
func collectionFromDigitable(line string) (string, error) {
	module := collectionModule(line)
	var b strings.Builder
	b.Grow(BarcodeLength)
	for i := 0; i < 4; i++ {
		block := line[i*12 : i*12+collectionBlockLength]
		want, err := module(block)
		if err != nil {
			return "", err
		}
		if got := line[i*12+collectionBlockLength]; got != digit(want) {
			return "", fmt.Errorf("%w: block %d digit %c, computed %d", ErrCheckDigit, i+1, got, want)
		}
		b.WriteString(block)
	}
	return b.String(), nil
}

// DigitableLine renders the digitable line of a valid barcode.
func DigitableLine(barcode string) (string, error) {
	barcode = Normalize(barcode)
	if err := ValidateBarcode(barcode); err != nil {
		return "", err
	}
	if KindOf(barcode) == KindCollection {
		module := collectionModule(barcode)
		var b strings.Builder
		for i := 0; i < 4; i++ {
			block := barcode[i*collectionBlockLength : (i+1)*collectionBlockLength]
			d, _ := module(block)
			b.WriteString(block)
			b.WriteByte(digit(d))
		}
		return b.String(), nil
	}

	fields := []string{
		barcode[0:4] + barcode[19:24],
		barcode[24:34],
		barcode[34:44],
	}
	var b strings.Builder
	for _, f := range fields {
		d, _ := Mod10(f)
		b.WriteString(f)
		b.WriteByte(digit(d))
	}
	b.WriteByte(barcode[bankSlipCheckIndex])
	b.WriteString(barcode[5:19])
	return b.String(), nil
}

// BankSlip is the decoded content of a bank-slip barcode.
type BankSlip struct {
	Bank      string          `json:"bank"`
	Currency  string          `json:"currency"`
	Check     string          `json:"check_digit"`
	DueFactor int             `json:"due_factor"`
	Amount    decimal.Decimal `json:"amount"`
	FreeField string          `json:"free_field"`
}

// ParseBankSlip validates a bank-slip barcode and splits it into its parts.
func ParseBankSlip(barcode string) (BankSlip, error) {
	barcode = Normalize(barcode)
	if err := ValidateBarcode(barcode); err != nil {
		return BankSlip{}, err
	}
	if KindOf(barcode) != KindBankSlip {
		return BankSlip{}, fmt.Errorf("%w: collection barcode", ErrKind)
	}
	factor := 0
	for _, c := range barcode[5:9] {
		factor = factor*10 + int(c-'0')
	}
	amount, err := decimal.NewFromString(barcode[9:19])
	if err != nil {
		return BankSlip{}, err
	}
	return BankSlip{
		Bank:      barcode[0:3],
		Currency:  barcode[3:4],
		Check:     barcode[4:5],
		DueFactor: factor,
		Amount:    amount.Shift(-2),
		FreeField: barcode[19:44],
	}, nil
}

var (
	factorBase  = time.Date(1997, 10, 7, 0, 0, 0, 0, time.UTC)
	factorReset = time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC)
)

// DueDate resolves a due factor to a date. Factors restarted at 1000 on
// 2025-02-22, so the cycle closest to ref wins. A zero factor has no date.
func DueDate(factor int, ref time.Time) (time.Time, bool) {
	if factor <= 0 {
		return time.Time{}, false
	}
	old := factorBase.AddDate(0, 0, factor)
	if factor < 1000 {
		return old, true
	}
	current := factorReset.AddDate(0, 0, factor-1000)
	if absDays(current.Sub(ref)) < absDays(old.Sub(ref)) {
		return current, true
	}
	return old, true
}

func absDays(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
