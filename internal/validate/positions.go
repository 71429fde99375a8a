package validate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cnab-dev/cnab/internal/extract"
)

// col returns the 1-based inclusive columns start..end of line, or "" when
// the line does not reach end.
func col(line string, start, end int) string {
	if start < 1 || end > len(line) || start > end {
		return ""
	}
	return line[start-1 : end]
}

// amount reads an implicit two-decimal monetary value. ok is false for blank
// or non-numeric content.
func amount(line string, start, end int) (decimal.Decimal, bool) {
	raw := strings.TrimSpace(col(line, start, end))
	if raw == "" {
		return decimal.Zero, false
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(raw, "-"), "+")
	if digits == "" || !extract.IsDigits(digits) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Shift(-2), true
}

// count reads an unsigned integer. ok is false for blank or non-numeric
// content.
func count(line string, start, end int) (int, bool) {
	raw := strings.TrimSpace(col(line, start, end))
	if raw == "" || !extract.IsDigits(raw) {
		return 0, false
	}
	n := 0
	for i := 0; i < len(raw); i++ {
		n = n*10 + int(raw[i]-'0')
	}
	return n, true
}

// date reads a date; ok is false when it is absent or invalid.
func date(line string, start, end int, format string) (time.Time, bool) {
	t, err := extract.ParseDate(col(line, start, end), format)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// day truncates t to midnight UTC of its calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
