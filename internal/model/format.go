package model

import "strings"

// Format identifies a CNAB layout family.
type Format string

const (
	Format240 Format = "cnab240"
	Format400 Format = "cnab400"
)

// LineLength returns the fixed record width for the format, or 0 if unknown.
func (f Format) LineLength() int {
	switch f {
	case Format240:
		return 240
	case Format400:
		return 400
	default:
		return 0
	}
}

// ParseFormat accepts "240", "cnab240", "CNAB_240" and the 400 equivalents.
func ParseFormat(s string) (Format, bool) {
	n := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(s))
	switch n {
	case "240", "cnab240":
		return Format240, true
	case "400", "cnab400":
		return Format400, true
	}
	return "", false
}

// Detection is what a detector reports about a file before parsing.
// The parser and the validators trust it and do not re-derive it.
type Detection struct {
	Format     Format  `json:"format"`
	BankCode   string  `json:"bankCode"`
	BankName   string  `json:"bankName"`
	Confidence float64 `json:"confidence"`
}

// RecordType classifies a line by its record-type discriminator.
type RecordType string

const (
	RecordFileHeader   RecordType = "file_header"
	RecordBatchHeader  RecordType = "batch_header"
	RecordDetail       RecordType = "detail"
	RecordBatchTrailer RecordType = "batch_trailer"
	RecordFileTrailer  RecordType = "file_trailer"
	RecordHeader       RecordType = "header"
	RecordTrailer      RecordType = "trailer"
	RecordUnknown      RecordType = "unknown"
)

// Segment sub-classifies CNAB 240 detail records.
type Segment string

// KnownSegments lists the 240 detail segments the system recognizes.
var KnownSegments = []Segment{"P", "Q", "R", "T", "U", "Y", "J", "N", "O", "W"}

// IsKnown reports whether s is one of KnownSegments.
func (s Segment) IsKnown() bool {
	for _, k := range KnownSegments {
		if s == k {
			return true
		}
	}
	return false
}

// Byte offsets of the discriminators (zero-based).
const (
	Offset240RecordType = 7
	Offset240Segment    = 13
	Offset400RecordType = 0
)

// Classify resolves the record type (and segment for 240 details) of a line.
func Classify(format Format, line string) (RecordType, Segment) {
	switch format {
	case Format240:
		if len(line) <= Offset240RecordType {
			return RecordUnknown, ""
		}
		switch line[Offset240RecordType] {
		case '0':
			return RecordFileHeader, ""
		case '1':
			return RecordBatchHeader, ""
		case '3':
			var seg Segment
			if len(line) > Offset240Segment {
				seg = Segment(strings.ToUpper(line[Offset240Segment : Offset240Segment+1]))
			}
			return RecordDetail, seg
		case '5':
			return RecordBatchTrailer, ""
		case '9':
			return RecordFileTrailer, ""
		}
	case Format400:
		if len(line) == 0 {
			return RecordUnknown, ""
		}
		switch line[Offset400RecordType] {
		case '0':
			return RecordHeader, ""
		case '1':
			return RecordDetail, ""
		case '9':
			return RecordTrailer, ""
		}
	}
	return RecordUnknown, ""
}

// SchemaName is the record-type component of a schema key. 240 details are
// keyed by segment ("segment_p"); everything else by its record type.
func SchemaName(rt RecordType, seg Segment) string {
	if rt == RecordDetail && seg != "" {
		return "segment_" + strings.ToLower(string(seg))
	}
	return string(rt)
}
