// Package fixtures builds CNAB lines for tests. Every builder fills only the
// fields a check looks at and leaves the rest blank.
package fixtures

import (
	"fmt"
	"strings"
	"time"
)

// Line is a fixed-width line under construction.
type Line []byte

// Blank returns a line of width spaces.
func Blank(width int) Line {
	return Line(strings.Repeat(" ", width))
}

// Set writes value at the 1-based column start. Values longer than the line
// are cut.
func (l Line) Set(start int, value string) Line {
	copy(l[start-1:], value)
	return l
}

// Num writes n zero-padded to width digits at start.
func (l Line) Num(start, width int, n int64) Line {
	return l.Set(start, fmt.Sprintf("%0*d", width, n))
}

// Date writes t in ddmmyyyy at start.
func (l Line) Date(start int, t time.Time) Line {
	return l.Set(start, t.Format("02012006"))
}

// Date6 writes t in ddmmyy at start.
func (l Line) Date6(start int, t time.Time) Line {
	return l.Set(start, t.Format("020106"))
}

func (l Line) String() string { return string(l) }

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// Join renders lines as file content with CRLF terminators.
func Join(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

// CNPJ and CPF with valid check digits.
const (
	CNPJ = "11222333000181"
	CPF  = "52998224725"
)

// Barcode is a bank-slip barcode with a valid check digit.
const Barcode = "34199100000000123451090000900513700796012345"

// FileHeader240 is a file header (record 0).
func FileHeader240(bank string, generated time.Time) string {
	return Blank(240).
		Set(1, bank).Set(4, "0000").Set(8, "0").
		Set(18, "2").Set(19, CNPJ).
		Set(73, "EMPRESA TESTE LTDA").
		Set(143, "1").Date(144, generated).Set(152, "101500").
		Num(158, 6, 1).Set(164, "089").
		String()
}

// BatchHeader240 is a batch header (record 1).
func BatchHeader240(bank string, batch int, recorded time.Time) string {
	return Blank(240).
		Set(1, bank).Num(4, 4, int64(batch)).Set(8, "1").
		Set(9, "R").Set(10, "01").Set(14, "045").
		Set(18, "2").Num(19, 15, 11222333000181).
		Set(74, "EMPRESA TESTE LTDA").
		Num(184, 8, 1).Date(192, recorded).
		String()
}

// SegmentP is a title detail (record 3, segment P).
func SegmentP(bank string, batch, seq int, due, issue time.Time, cents int64) string {
	return Blank(240).
		Set(1, bank).Num(4, 4, int64(batch)).Set(8, "3").
		Num(9, 5, int64(seq)).Set(14, "P").Set(16, "01").
		Num(18, 5, 1234).Num(24, 12, 56789).
		Set(38, fmt.Sprintf("NN%08d", seq)).
		Set(58, "1").Set(63, fmt.Sprintf("DOC%06d", seq)).
		Date(78, due).Num(86, 15, cents).
		Set(107, "02").Set(109, "N").Date(110, issue).
		Set(228, "09").
		String()
}

// SegmentQ is a payer detail (record 3, segment Q).
func SegmentQ(bank string, batch, seq, taxType int, taxID string) string {
	return Blank(240).
		Set(1, bank).Num(4, 4, int64(batch)).Set(8, "3").
		Num(9, 5, int64(seq)).Set(14, "Q").Set(16, "01").
		Num(18, 1, int64(taxType)).Set(19, zeroPad(taxID, 15)).
		Set(34, "PAGADOR TESTE").Set(129, "01310100").
		String()
}

// SegmentJ is a bank-slip payment detail (record 3, segment J).
func SegmentJ(bank string, batch, seq int, barcode string, due time.Time, cents int64) string {
	return Blank(240).
		Set(1, bank).Num(4, 4, int64(batch)).Set(8, "3").
		Num(9, 5, int64(seq)).Set(14, "J").Set(15, "0").Set(16, "00").
		Set(18, barcode).Set(62, "BENEFICIARIO TESTE").
		Date(92, due).Num(100, 15, cents).
		Date(145, due).Num(153, 15, cents).
		Set(223, "09").
		String()
}

// BatchTrailer240 is a batch trailer (record 5). declared is the record
// count at 18-23; cents the total at 30-46.
func BatchTrailer240(bank string, batch, declared int, cents int64) string {
	return Blank(240).
		Set(1, bank).Num(4, 4, int64(batch)).Set(8, "5").
		Num(18, 6, int64(declared)).Num(30, 17, cents).
		String()
}

// FileTrailer240 is a file trailer (record 9).
func FileTrailer240(bank string, batches, records int) string {
	return Blank(240).
		Set(1, bank).Set(4, "9999").Set(8, "9").
		Num(18, 6, int64(batches)).Num(24, 6, int64(records)).
		String()
}

// Header400 is a 400 header (record 0).
func Header400(bank string, recorded time.Time) string {
	return Blank(400).
		Set(1, "0").Set(2, "1").Set(3, "REMESSA").Set(10, "01").
		Set(12, "COBRANCA").Set(47, "EMPRESA TESTE LTDA").
		Set(77, bank).Set(80, "BANCO TESTE").Date6(95, recorded).
		Num(395, 6, 1).
		String()
}

// Detail400 is a 400 detail (record 1).
func Detail400(seq int, due, issue time.Time, cents int64, taxType int, taxID string) string {
	return Blank(400).
		Set(1, "1").Set(2, "02").Set(4, CNPJ).
		Num(18, 4, 1234).Set(22, "00").Num(24, 5, 56789).
		Num(63, 8, int64(seq)).Set(84, "109").Set(109, "01").
		Set(111, fmt.Sprintf("D%09d", seq)).
		Date6(121, due).Num(127, 13, cents).
		Set(148, "01").Set(150, "N").Date6(151, issue).
		Num(219, 2, int64(taxType)).Set(221, zeroPad(taxID, 14)).
		Set(235, "PAGADOR TESTE").Set(327, "01310100").
		Num(395, 6, int64(seq)).
		String()
}

// Trailer400 is a 400 trailer (record 9). cents goes to the total at 221-234.
func Trailer400(seq int, cents int64) string {
	return Blank(400).
		Set(1, "9").Num(221, 14, cents).Num(395, 6, int64(seq)).
		String()
}

// ScenarioA is a minimal valid 240 file: one batch holding one segment P.
// Dates are relative to now.
func ScenarioA(bank string, now time.Time) []string {
	return File240(bank, now, 1)
}

// ScenarioB is ScenarioA with a batch trailer declaring two records.
func ScenarioB(bank string, now time.Time) []string {
	lines := ScenarioA(bank, now)
	lines[3] = BatchTrailer240(bank, 1, 2, 0)
	return lines
}

// File240 builds a valid 240 file with the given number of batches, each
// holding one segment P and one segment Q.
func File240(bank string, now time.Time, batches int) []string {
	day := now.Truncate(24 * time.Hour)
	lines := []string{FileHeader240(bank, day)}
	for b := 1; b <= batches; b++ {
		lines = append(lines, BatchHeader240(bank, b, day))
		lines = append(lines, SegmentP(bank, b, 1, day.AddDate(0, 0, 10), day.AddDate(0, 0, -1), 12345))
		if batches > 1 {
			lines = append(lines, SegmentQ(bank, b, 2, 2, CNPJ))
			lines = append(lines, BatchTrailer240(bank, b, 2, 12345))
			continue
		}
		lines = append(lines, BatchTrailer240(bank, b, 1, 12345))
	}
	lines = append(lines, FileTrailer240(bank, batches, len(lines)+1))
	return lines
}

// ScenarioC is a 400 file with a header immediately followed by a trailer.
func ScenarioC(bank string, now time.Time) []string {
	return []string{Header400(bank, now), Trailer400(2, 0)}
}

// File400 builds a valid 400 file with n details.
func File400(bank string, now time.Time, n int) []string {
	day := now.Truncate(24 * time.Hour)
	lines := []string{Header400(bank, day)}
	var total int64
	for i := 1; i <= n; i++ {
		cents := int64(1000 * i)
		total += cents
		lines = append(lines, Detail400(i+1, day.AddDate(0, 0, 15), day.AddDate(0, 0, -2), cents, 1, CPF))
	}
	lines = append(lines, Trailer400(n+2, total))
	return lines
}
