// Package checkdigit implements the Mod10 and Mod11 check digits used by
// bank-slip and collection barcodes, and validates barcodes and digitable
// lines against them.
package checkdigit

import (
	"errors"
	"fmt"
)

var (
	ErrLength     = errors.New("invalid length")
	ErrNotNumeric = errors.New("non-numeric content")
	ErrCheckDigit = errors.New("check digit mismatch")
	ErrKind       = errors.New("wrong barcode kind")
)

// Mod10 computes the modulo 10 check digit of digits. Multipliers run 2,1,2,1
// from the rightmost digit; two-digit products contribute the sum of their
// digits.
func Mod10(digits string) (int, error) {
	if err := numeric(digits); err != nil {
		return 0, err
	}
	sum, weight := 0, 2
	for i := len(digits) - 1; i >= 0; i-- {
		p := int(digits[i]-'0') * weight
		if p > 9 {
			p = p/10 + p%10
		}
		sum += p
		weight = 3 - weight
	}
	return (10 - sum%10) % 10, nil
}

// Mod11 computes the bank-slip barcode check digit: weights cycle 2..9 from
// the right and results of 0, 10 or 11 collapse to 1.
func Mod11(digits string) (int, error) {
	sum, err := weightedSum(digits)
	if err != nil {
		return 0, err
	}
	d := 11 - sum%11
	if d == 0 || d == 10 || d == 11 {
		return 1, nil
	}
	return d, nil
}

// Mod11Collection computes the collection barcode variant, where remainders
// of 0 and 1 give a check digit of 0.
func Mod11Collection(digits string) (int, error) {
	sum, err := weightedSum(digits)
	if err != nil {
		return 0, err
	}
	r := sum % 11
	if r < 2 {
		return 0, nil
	}
	return 11 - r, nil
}

func weightedSum(digits string) (int, error) {
	if err := numeric(digits); err != nil {
		return 0, err
	}
	sum, weight := 0, 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	return sum, nil
}

func numeric(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrLength)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("%w: %q at position %d", ErrNotNumeric, s[i], i+1)
		}
	}
	return nil
}

func digit(d int) byte { return byte('0' + d) }
