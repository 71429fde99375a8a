package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cnab-dev/cnab/internal/model"
)

// Fixed positions read by the integrity checks.
const (
	ftBatchesStart = 18 // 240 file trailer
	ftBatchesEnd   = 23
	ftRecordsStart = 24
	ftRecordsEnd   = 29

	btRecordsStart      = 18 // 240 batch trailer
	btRecordsEnd        = 23
	btTotalStart        = 30
	btTotalEnd          = 46
	btPaymentTotalStart = 24
	btPaymentTotalEnd   = 41

	batchNumberStart = 4
	batchNumberEnd   = 7
	detailSeqStart   = 9
	detailSeqEnd     = 13

	pValueStart = 86
	pValueEnd   = 100
	jPaidStart  = 153
	jPaidEnd    = 167
	aPaidStart  = 120
	aPaidEnd    = 134

	fhDateStart = 144
	fhDateEnd   = 151
	bhDateStart = 192
	bhDateEnd   = 199

	seq400Start   = 395
	seq400End     = 400
	value400Start = 127
	value400End   = 139
	total400Start = 221
	total400End   = 234
)

var tolerance = decimal.New(1, -2)

func checkIntegrity(res *model.ValidationResult, lines []string, det model.Detection) {
	switch det.Format {
	case model.Format240:
		integrity240(res, lines)
	case model.Format400:
		integrity400(res, lines)
	}
}

func tally(lines []string, format model.Format) (map[model.RecordType]int, map[model.RecordType]int) {
	counts := make(map[model.RecordType]int)
	first := make(map[model.RecordType]int)
	for i, l := range lines {
		rt, _ := model.Classify(format, l)
		counts[rt]++
		if _, ok := first[rt]; !ok {
			first[rt] = i + 1
		}
	}
	return counts, first
}

func expectOne(res *model.ValidationResult, counts map[model.RecordType]int, rt model.RecordType, what string) {
	if n := counts[rt]; n != 1 {
		res.AddError(model.IssueIntegrity, 0, "", fmt.Sprintf("expected exactly one %s, found %d", what, n))
		return
	}
	res.Pass()
}

func integrity240(res *model.ValidationResult, lines []string) {
	counts, first := tally(lines, model.Format240)
	expectOne(res, counts, model.RecordFileHeader, "file header")
	expectOne(res, counts, model.RecordFileTrailer, "file trailer")

	if h, t := counts[model.RecordBatchHeader], counts[model.RecordBatchTrailer]; h != t {
		res.AddError(model.IssueIntegrity, 0, "", fmt.Sprintf("%d batch headers but %d batch trailers", h, t))
	} else {
		res.Pass()
	}

	if n, ok := first[model.RecordFileTrailer]; ok {
		trailer := lines[n-1]
		if declared, ok := count(trailer, ftBatchesStart, ftBatchesEnd); !ok {
			res.AddWarning(model.IssueIntegrity, n, "quantidade_lotes", "batch count is not numeric")
		} else if declared != counts[model.RecordBatchHeader] {
			res.AddError(model.IssueIntegrity, n, "quantidade_lotes",
				fmt.Sprintf("file trailer declares %d batches, found %d", declared, counts[model.RecordBatchHeader]))
		} else {
			res.Pass()
		}
		if declared, ok := count(trailer, ftRecordsStart, ftRecordsEnd); !ok {
			res.AddWarning(model.IssueIntegrity, n, "quantidade_registros", "record count is not numeric")
		} else if declared != len(lines) {
			res.AddError(model.IssueIntegrity, n, "quantidade_registros",
				fmt.Sprintf("file trailer declares %d records, file has %d", declared, len(lines)))
		} else {
			res.Pass()
		}
	}

	batches240(res, lines)
	crossCheck240(res, lines, first)
}

type batchGroup struct {
	number   int
	header   int
	details  []int
	segments map[model.Segment]bool
}

// batches240 groups lines by batch header/trailer boundaries on its own and
// checks each group: numbering, detail sequence, declared count and totals.
func batches240(res *model.ValidationResult, lines []string) {
	var open *batchGroup
	expectedBatch := 1

	unterminated := func(g *batchGroup) {
		res.AddError(model.IssueIntegrity, g.header, "", fmt.Sprintf("batch %d starting at line %d has no trailer", g.number, g.header))
	}

	for i, l := range lines {
		n := i + 1
		rt, seg := model.Classify(model.Format240, l)
		switch rt {
		case model.RecordBatchHeader:
			if open != nil {
				unterminated(open)
			}
			number, ok := count(l, batchNumberStart, batchNumberEnd)
			switch {
			case !ok:
				res.AddError(model.IssueIntegrity, n, "lote_servico", "batch number is not numeric")
			case number != expectedBatch:
				res.AddError(model.IssueIntegrity, n, "lote_servico", fmt.Sprintf("batch number %d, expected %d", number, expectedBatch))
				expectedBatch = number
			default:
				res.Pass()
			}
			expectedBatch++
			open = &batchGroup{number: number, header: n, segments: make(map[model.Segment]bool)}

		case model.RecordDetail:
			if open == nil {
				res.AddError(model.IssueIntegrity, n, "", "detail record outside a batch")
				continue
			}
			open.details = append(open.details, n)
			open.segments[seg] = true
			want := len(open.details)
			if got, ok := count(l, detailSeqStart, detailSeqEnd); !ok {
				res.AddError(model.IssueIntegrity, n, "numero_registro", "record sequence is not numeric")
			} else if got != want {
				res.AddError(model.IssueIntegrity, n, "numero_registro", fmt.Sprintf("record sequence %d, expected %d", got, want))
			} else {
				res.Pass()
			}

		case model.RecordBatchTrailer:
			if open == nil {
				res.AddError(model.IssueIntegrity, n, "", "batch trailer without a batch header")
				continue
			}
			checkBatchTrailer(res, lines, open, n)
			open = nil

		case model.RecordFileTrailer:
			if open != nil {
				unterminated(open)
				open = nil
			}
		}
	}
	if open != nil {
		unterminated(open)
	}
}

// checkBatchTrailer compares the trailer's declared record count with the
// details seen (layouts differ on whether header and trailer are included,
// so both readings are accepted) and its total with the summed amounts.
func checkBatchTrailer(res *model.ValidationResult, lines []string, g *batchGroup, n int) {
	trailer := lines[n-1]
	details := len(g.details)
	if declared, ok := count(trailer, btRecordsStart, btRecordsEnd); !ok {
		res.AddError(model.IssueIntegrity, n, "quantidade_registros", "batch record count is not numeric")
	} else if declared != details && declared != details+2 {
		res.AddError(model.IssueIntegrity, n, "quantidade_registros",
			fmt.Sprintf("batch %d trailer declares %d records, found %d details", g.number, declared, details))
	} else {
		res.Pass()
	}

	switch {
	case g.segments["P"]:
		sumCheck(res, lines, g.details, "P", pValueStart, pValueEnd, trailer, btTotalStart, btTotalEnd, n)
	case g.segments["J"]:
		sumCheck(res, lines, g.details, "J", jPaidStart, jPaidEnd, trailer, btPaymentTotalStart, btPaymentTotalEnd, n)
	case g.segments["A"]:
		sumCheck(res, lines, g.details, "A", aPaidStart, aPaidEnd, trailer, btPaymentTotalStart, btPaymentTotalEnd, n)
	}
}

// sumCheck adds the amount at start..end over the details of one segment and
// compares it with the trailer total. Zero, blank or non-numeric totals are
// not checked.
func sumCheck(res *model.ValidationResult, lines []string, details []int, seg model.Segment,
	start, end int, trailer string, tStart, tEnd, n int) {
	declared, ok := amount(trailer, tStart, tEnd)
	if !ok || declared.IsZero() {
		return
	}
	sum := decimal.Zero
	for _, d := range details {
		l := lines[d-1]
		if _, s := model.Classify(model.Format240, l); s != seg {
			continue
		}
		if v, ok := amount(l, start, end); ok {
			sum = sum.Add(v)
		}
	}
	if sum.Sub(declared).Abs().GreaterThan(tolerance) {
		res.AddError(model.IssueIntegrity, n, "valor_total",
			fmt.Sprintf("trailer total %s does not match segment %s sum %s", declared.StringFixed(2), seg, sum.StringFixed(2)))
		return
	}
	res.Pass()
}

// crossCheck240 compares the bank code of file header and trailer and the
// generation date of the header with each batch header's recording date.
func crossCheck240(res *model.ValidationResult, lines []string, first map[model.RecordType]int) {
	h, okH := first[model.RecordFileHeader]
	t, okT := first[model.RecordFileTrailer]
	if !okH {
		return
	}
	header := lines[h-1]
	if okT {
		if hb, tb := col(header, 1, 3), col(lines[t-1], 1, 3); hb != tb {
			res.AddWarning(model.IssueIntegrity, t, "codigo_banco", fmt.Sprintf("file trailer bank %s differs from header bank %s", tb, hb))
		} else {
			res.Pass()
		}
	}

	generated, ok := date(header, fhDateStart, fhDateEnd, "ddmmyyyy")
	if !ok {
		return
	}
	for i, l := range lines {
		if rt, _ := model.Classify(model.Format240, l); rt != model.RecordBatchHeader {
			continue
		}
		recorded, ok := date(l, bhDateStart, bhDateEnd, "ddmmyyyy")
		if !ok {
			continue
		}
		if !recorded.Equal(generated) {
			res.AddWarning(model.IssueIntegrity, i+1, "data_gravacao",
				fmt.Sprintf("batch date %s differs from file date %s", recorded.Format("2006-01-02"), generated.Format("2006-01-02")))
			continue
		}
		res.Pass()
	}
}

func integrity400(res *model.ValidationResult, lines []string) {
	counts, first := tally(lines, model.Format400)
	expectOne(res, counts, model.RecordHeader, "header")
	expectOne(res, counts, model.RecordTrailer, "trailer")

	expected := 1
	for i, l := range lines {
		n := i + 1
		if rt, _ := model.Classify(model.Format400, l); rt == model.RecordTrailer {
			continue
		}
		got, ok := count(l, seq400Start, seq400End)
		switch {
		case !ok:
			res.AddError(model.IssueIntegrity, n, "numero_sequencial", "sequence number is not numeric")
		case got != expected:
			res.AddError(model.IssueIntegrity, n, "numero_sequencial", fmt.Sprintf("sequence number %d, expected %d", got, expected))
			expected = got
		default:
			res.Pass()
		}
		expected++
	}

	n, ok := first[model.RecordTrailer]
	if !ok {
		return
	}
	trailer := lines[n-1]
	if got, ok := count(trailer, seq400Start, seq400End); !ok {
		res.AddWarning(model.IssueIntegrity, n, "numero_sequencial", "trailer sequence is not numeric")
	} else if got != len(lines) {
		res.AddError(model.IssueIntegrity, n, "numero_sequencial", fmt.Sprintf("trailer sequence %d, file has %d records", got, len(lines)))
	} else {
		res.Pass()
	}

	declared, ok := amount(trailer, total400Start, total400End)
	if !ok || declared.IsZero() {
		return
	}
	sum := decimal.Zero
	for _, l := range lines {
		if rt, _ := model.Classify(model.Format400, l); rt != model.RecordDetail {
			continue
		}
		if v, ok := amount(l, value400Start, value400End); ok {
			sum = sum.Add(v)
		}
	}
	if sum.Sub(declared).Abs().GreaterThan(tolerance) {
		res.AddError(model.IssueIntegrity, n, "valor_total",
			fmt.Sprintf("trailer total %s does not match detail sum %s", declared.StringFixed(2), sum.StringFixed(2)))
		return
	}
	res.Pass()
}
