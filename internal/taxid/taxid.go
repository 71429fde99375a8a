// Package taxid validates CPF and CNPJ numbers.
package taxid

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the declared type of a tax id.
type Kind int

const (
	KindUnknown Kind = iota
	KindCPF
	KindCNPJ
)

const (
	CPFLength  = 11
	CNPJLength = 14
)

var (
	ErrLength     = errors.New("invalid length")
	ErrNotNumeric = errors.New("non-numeric content")
	ErrRepeated   = errors.New("all digits repeated")
	ErrCheckDigit = errors.New("check digit mismatch")
	ErrMismatch   = errors.New("declared type does not match number")
	ErrUnknown    = errors.New("unknown tax id type")
)

func (k Kind) String() string {
	switch k {
	case KindCPF:
		return "CPF"
	case KindCNPJ:
		return "CNPJ"
	default:
		return "unknown"
	}
}

// KindFromCode maps the registration type code used in CNAB records
// (1 = CPF, 2 = CNPJ) to a Kind. Leading zeros are ignored.
func KindFromCode(code string) Kind {
	switch strings.TrimLeft(strings.TrimSpace(code), "0") {
	case "1":
		return KindCPF
	case "2":
		return KindCNPJ
	default:
		return KindUnknown
	}
}

// Digits strips the punctuation of formatted ids.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', '/', ' ':
			return -1
		}
		return r
	}, s)
}

// ValidateCPF checks an 11-digit CPF. Shorter input is left-padded with
// zeros, as CNAB fields store it.
func ValidateCPF(cpf string) error {
	return validate(Digits(cpf), CPFLength, cpfWeights)
}

// ValidateCNPJ checks a 14-digit CNPJ, left-padding shorter input.
func ValidateCNPJ(cnpj string) error {
	return validate(Digits(cnpj), CNPJLength, cnpjWeights)
}

// ValidCPF reports whether ValidateCPF accepts cpf.
func ValidCPF(cpf string) bool { return ValidateCPF(cpf) == nil }

// ValidCNPJ reports whether ValidateCNPJ accepts cnpj.
func ValidCNPJ(cnpj string) bool { return ValidateCNPJ(cnpj) == nil }

// Validate checks id as the given kind.
func Validate(kind Kind, id string) error {
	switch kind {
	case KindCPF:
		return ValidateCPF(id)
	case KindCNPJ:
		return ValidateCNPJ(id)
	default:
		return ErrUnknown
	}
}

func validate(id string, length int, weights func(pos, n int) int) error {
	if id == "" || len(id) > length {
		return fmt.Errorf("%w: %d digits, want %d", ErrLength, len(id), length)
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return fmt.Errorf("%w: %q", ErrNotNumeric, id)
		}
	}
	id = strings.Repeat("0", length-len(id)) + id
	if strings.Count(id, id[:1]) == length {
		return ErrRepeated
	}
	for n := length - 2; n < length; n++ {
		want := checkDigit(id[:n], weights)
		if int(id[n]-'0') != want {
			return fmt.Errorf("%w: digit %d is %c, computed %d", ErrCheckDigit, n+1, id[n], want)
		}
	}
	return nil
}

func checkDigit(prefix string, weights func(pos, n int) int) int {
	sum := 0
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weights(i, len(prefix))
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// cpfWeights runs from n+1 down to 2 across the prefix.
func cpfWeights(pos, n int) int { return n + 1 - pos }

// cnpjWeights cycles 2..9 from the rightmost digit of the prefix.
func cnpjWeights(pos, n int) int { return (n-1-pos)%8 + 2 }

// Inspect validates a tax id as stored in a record: leading zeros are
// stripped and the remaining digits must fit the declared kind before its
// check digits are verified.
func Inspect(kind Kind, number string) error {
	digits := strings.TrimLeft(strings.TrimSpace(number), "0")
	switch kind {
	case KindCPF:
		if len(digits) > CPFLength {
			return fmt.Errorf("%w: CPF declared for a %d-digit number", ErrMismatch, len(digits))
		}
	case KindCNPJ:
		if len(digits) > CNPJLength {
			return fmt.Errorf("%w: %d digits", ErrLength, len(digits))
		}
	default:
		return ErrUnknown
	}
	if digits == "" {
		return fmt.Errorf("%w: empty", ErrLength)
	}
	return Validate(kind, digits)
}
