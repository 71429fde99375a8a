package banks

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const (
	numFields    = 4
	colCode      = 0
	colName      = 1
	colShortName = 2
	colFormats   = 3
)

// ReadBanks reads banks.csv.
func ReadBanks(r io.Reader) ([]Bank, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading banks CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var banks []Bank
	for i, rec := range records[1:] {
		b, err := UnmarshalBank(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		banks = append(banks, b)
	}
	return banks, nil
}

// WriteBanks writes banks.csv.
func WriteBanks(w io.Writer, banks []Bank) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"code", "name", "short_name", "formats"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, b := range banks {
		if err := cw.Write(MarshalBank(b)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalBank converts a Bank to a CSV row. Formats are joined with ";".
func MarshalBank(b Bank) []string {
	row := make([]string, numFields)
	row[colCode] = b.Code
	row[colName] = b.Name
	row[colShortName] = b.ShortName
	row[colFormats] = strings.Join(b.Formats, ";")
	return row
}

// UnmarshalBank converts a CSV row to a Bank.
func UnmarshalBank(record []string) (Bank, error) {
	if len(record) != numFields {
		return Bank{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	code := strings.TrimSpace(record[colCode])
	if !validCode(code) {
		return Bank{}, fmt.Errorf("parsing code %q: want 3 digits", record[colCode])
	}

	var formats []string
	for _, f := range strings.Split(record[colFormats], ";") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}

	return Bank{
		Code:      code,
		Name:      record[colName],
		ShortName: record[colShortName],
		Formats:   formats,
	}, nil
}

func validCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
