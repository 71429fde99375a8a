package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date formats understood by ParseDate.
const (
	DateDDMMYYYY = "ddmmyyyy"
	DateDDMMYY   = "ddmmyy"
	DateYYYYMMDD = "yyyymmdd"
	DateYYMMDD   = "yymmdd"
)

// PivotYear splits two-digit years: 00–50 are 20xx, 51–99 are 19xx.
const PivotYear = 50

var (
	// ErrInvalidDate is returned for content that is not a real calendar date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrUnknownDateFormat is returned for a format ParseDate does not know.
	ErrUnknownDateFormat = errors.New("unknown date format")
)

// ParseDate converts value according to format. Blank or all-zero values are
// absent, not errors: the zero time and a nil error are returned.
func ParseDate(value, format string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.Trim(value, "0") == "" {
		return time.Time{}, nil
	}

	var width int
	switch strings.ToLower(format) {
	case DateDDMMYYYY, DateYYYYMMDD:
		width = 8
	case DateDDMMYY, DateYYMMDD:
		width = 6
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownDateFormat, format)
	}
	if len(value) != width || !IsDigits(value) {
		return time.Time{}, fmt.Errorf("%w: %q is not %s", ErrInvalidDate, value, format)
	}

	var day, month, year int
	switch strings.ToLower(format) {
	case DateDDMMYYYY:
		day, month, year = num(value[0:2]), num(value[2:4]), num(value[4:8])
	case DateYYYYMMDD:
		year, month, day = num(value[0:4]), num(value[4:6]), num(value[6:8])
	case DateDDMMYY:
		day, month, year = num(value[0:2]), num(value[2:4]), expandYear(num(value[4:6]))
	case DateYYMMDD:
		year, month, day = expandYear(num(value[0:2])), num(value[2:4]), num(value[4:6])
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q (%s)", ErrInvalidDate, value, format)
	}
	return t, nil
}

func expandYear(yy int) int {
	if yy <= PivotYear {
		return 2000 + yy
	}
	return 1900 + yy
}

func num(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
