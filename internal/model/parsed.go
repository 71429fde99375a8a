package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a 240 lote: header, details and trailer.
type Batch struct {
	Number   int       `json:"batchNumber"`
	Header   *Record   `json:"header"`
	Trailer  *Record   `json:"trailer"`
	Details  []*Record `json:"details"`
	Segments []Segment `json:"segmentTypes"`
}

// Terminated reports whether the batch trailer was seen.
func (b *Batch) Terminated() bool { return b.Trailer != nil }

// Metadata describes a parsed file.
type Metadata struct {
	Format         Format        `json:"format"`
	BankCode       string        `json:"bankCode"`
	BankName       string        `json:"bankName"`
	TotalLines     int           `json:"totalLines"`
	TotalBatches   int           `json:"totalBatches"`
	TotalRecords   int           `json:"totalRecords"`
	ProcessingTime time.Duration `json:"processingTime"`
	Checksum       string        `json:"checksum,omitempty"`
	RunID          string        `json:"runId,omitempty"`
}

// ParsedData is the read-only result of a parse.
type ParsedData struct {
	Metadata  Metadata  `json:"metadata"`
	Header    *Record   `json:"header"`
	Trailer   *Record   `json:"trailer"`
	Batches   []*Batch  `json:"batches,omitempty"`
	Details   []*Record `json:"details,omitempty"`
	Unbatched []*Record `json:"unbatched,omitempty"`
}

// DefaultAmountFields are the field names FinancialSummary sums when none are given.
var DefaultAmountFields = []string{"valor_titulo", "valor_pagamento", "valor_pago"}

// FinancialSummary aggregates monetary fields over detail records.
type FinancialSummary struct {
	Records   int                         `json:"records"`
	Total     decimal.Decimal             `json:"total"`
	ByField   map[string]decimal.Decimal  `json:"byField"`
	BySegment map[Segment]decimal.Decimal `json:"bySegment,omitempty"`
}

// AllDetails returns every detail record in file order.
func (d *ParsedData) AllDetails() []*Record {
	var out []*Record
	for _, b := range d.Batches {
		out = append(out, b.Details...)
	}
	out = append(out, d.Details...)
	for _, r := range d.Unbatched {
		if r.Type == RecordDetail {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// DetailsBySegment filters 240 details by segment.
func (d *ParsedData) DetailsBySegment(seg Segment) []*Record {
	var out []*Record
	for _, r := range d.AllDetails() {
		if r.Segment == seg {
			out = append(out, r)
		}
	}
	return out
}

// RecordTypeStats counts records by type. Details of 240 files are also
// counted per segment under their schema name ("segment_p").
func (d *ParsedData) RecordTypeStats() map[string]int {
	stats := make(map[string]int)
	add := func(r *Record) {
		if r == nil {
			return
		}
		stats[string(r.Type)]++
		if r.Segment != "" {
			stats[SchemaName(r.Type, r.Segment)]++
		}
	}
	add(d.Header)
	add(d.Trailer)
	for _, b := range d.Batches {
		add(b.Header)
		add(b.Trailer)
		for _, r := range b.Details {
			add(r)
		}
	}
	for _, r := range d.Details {
		add(r)
	}
	for _, r := range d.Unbatched {
		add(r)
	}
	return stats
}

// FinancialSummary sums the named fields over all details.
func (d *ParsedData) FinancialSummary(fields ...string) FinancialSummary {
	if len(fields) == 0 {
		fields = DefaultAmountFields
	}
	sum := FinancialSummary{
		Total:     decimal.Zero,
		ByField:   make(map[string]decimal.Decimal),
		BySegment: make(map[Segment]decimal.Decimal),
	}
	for _, r := range d.AllDetails() {
		sum.Records++
		for _, name := range fields {
			v, ok := r.Field(name)
			if !ok || !v.IsNumber() {
				continue
			}
			sum.Total = sum.Total.Add(v.Number)
			sum.ByField[name] = sum.ByField[name].Add(v.Number)
			if r.Segment != "" {
				sum.BySegment[r.Segment] = sum.BySegment[r.Segment].Add(v.Number)
			}
		}
	}
	return sum
}

// Builder assembles ParsedData. It is owned by a single parse call.
type Builder struct {
	data *ParsedData
	open *Batch
	seen map[Segment]bool
}

// NewBuilder starts an empty ParsedData for the given format.
func NewBuilder(format Format) *Builder {
	return &Builder{data: &ParsedData{Metadata: Metadata{Format: format}}}
}

// SetHeader records the file header. A second header replaces nothing and
// reports false.
func (b *Builder) SetHeader(r *Record) bool {
	if b.data.Header != nil {
		b.data.Unbatched = append(b.data.Unbatched, r)
		return false
	}
	b.data.Header = r
	return true
}

// SetTrailer records the file trailer, with the same rule as SetHeader.
func (b *Builder) SetTrailer(r *Record) bool {
	if b.data.Trailer != nil {
		b.data.Unbatched = append(b.data.Unbatched, r)
		return false
	}
	b.data.Trailer = r
	return true
}

// OpenBatch starts a new batch. If another batch is still open it is appended
// unterminated and returned.
func (b *Builder) OpenBatch(header *Record, number int) (unterminated *Batch) {
	if b.open != nil {
		unterminated = b.flush()
	}
	b.open = &Batch{Number: number, Header: header, Details: []*Record{}}
	b.seen = make(map[Segment]bool)
	return unterminated
}

// HasOpenBatch reports whether a batch header is awaiting its trailer.
func (b *Builder) HasOpenBatch() bool { return b.open != nil }

// AddDetail appends to the open batch. Without an open batch the record is
// kept as unbatched and false is returned.
func (b *Builder) AddDetail(r *Record) bool {
	if b.open == nil {
		b.data.Unbatched = append(b.data.Unbatched, r)
		return false
	}
	b.open.Details = append(b.open.Details, r)
	if r.Segment != "" && !b.seen[r.Segment] {
		b.seen[r.Segment] = true
		b.open.Segments = append(b.open.Segments, r.Segment)
	}
	return true
}

// CloseBatch attaches the trailer to the open batch and appends it. Without
// an open batch the trailer is kept as unbatched and false is returned.
func (b *Builder) CloseBatch(trailer *Record) bool {
	if b.open == nil {
		b.data.Unbatched = append(b.data.Unbatched, trailer)
		return false
	}
	b.open.Trailer = trailer
	b.flush()
	return true
}

// AddFlatDetail appends a 400 detail.
func (b *Builder) AddFlatDetail(r *Record) {
	b.data.Details = append(b.data.Details, r)
}

// AddUnbatched keeps a record that has no place in the structure.
func (b *Builder) AddUnbatched(r *Record) {
	b.data.Unbatched = append(b.data.Unbatched, r)
}

func (b *Builder) flush() *Batch {
	batch := b.open
	b.data.Batches = append(b.data.Batches, batch)
	b.open = nil
	b.seen = nil
	return batch
}

// Build finishes the data. A batch still open is appended unterminated and
// returned so the caller can report it.
func (b *Builder) Build(meta Metadata) (*ParsedData, *Batch) {
	var unterminated *Batch
	if b.open != nil {
		unterminated = b.flush()
	}
	meta.Format = b.data.Metadata.Format
	meta.TotalBatches = len(b.data.Batches)
	b.data.Metadata = meta
	if b.data.Batches == nil && meta.Format == Format240 {
		b.data.Batches = []*Batch{}
	}
	if b.data.Details == nil && meta.Format == Format400 {
		b.data.Details = []*Record{}
	}
	data := b.data
	b.data = nil
	return data, unterminated
}
