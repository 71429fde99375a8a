package parser

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/model"
)

// CNAB240 parses hierarchical 240-column files.
type CNAB240 struct{}

// Format returns model.Format240.
func (p *CNAB240) Format() model.Format { return model.Format240 }

// Parse walks the lines through Transition240. Unexpected records are
// reported and still placed: orphan details and trailers go to Unbatched,
// and a batch left open is kept unterminated.
func (p *CNAB240) Parse(lines []string, schemas Schemas, det model.Detection, res *model.ParseResult, opts Options) (*model.ParsedData, error) {
	b := model.NewBuilder(model.Format240)
	state := WaitingFileHeader
	batches, details := 0, 0

	for i, line := range lines {
		n := i + 1
		rt, seg := model.Classify(model.Format240, line)
		rec, err := decode(line, n, rt, seg, schemas.For(rt, seg), opts)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}

		next, effect, ok := Transition240(state, rt)
		if !ok && state != Error240 {
			res.AddError(model.IssueParse, n, "", fmt.Sprintf("unexpected %s record in state %s", rt, state))
		}
		state = next

		switch effect {
		case EffectSetHeader:
			if !b.SetHeader(rec) {
				res.AddError(model.IssueParse, n, "", "duplicate file header")
			}
		case EffectOpenBatch:
			batches++
			if open := b.OpenBatch(rec, batchNumber(rec, batches)); open != nil {
				res.AddError(model.IssueParse, open.Header.Line, "", fmt.Sprintf("batch %d has no trailer", open.Number))
			}
		case EffectAddDetail:
			details++
			if !b.AddDetail(rec) {
				res.AddError(model.IssueParse, n, "", "detail record outside a batch")
			}
		case EffectCloseBatch:
			if !b.CloseBatch(rec) {
				res.AddError(model.IssueParse, n, "", "batch trailer without a batch header")
			}
		case EffectSetTrailer:
			if b.HasOpenBatch() {
				res.AddError(model.IssueParse, n, "", "file trailer inside an open batch")
			}
			if !b.SetTrailer(rec) {
				res.AddError(model.IssueParse, n, "", "duplicate file trailer")
			}
		default:
			b.AddUnbatched(rec)
		}
	}

	data, open := b.Build(model.Metadata{
		BankCode:     det.BankCode,
		BankName:     det.BankName,
		TotalLines:   len(lines),
		TotalRecords: details,
	})
	if open != nil {
		res.AddError(model.IssueParse, open.Header.Line, "", fmt.Sprintf("batch %d has no trailer", open.Number))
	}
	if state != Finished240 && state != Error240 {
		res.AddError(model.IssueParse, 0, "", fmt.Sprintf("unexpected end of file in state %s", state))
	}
	opts.logger().WithFields(logrus.Fields{
		"format":  model.Format240,
		"lines":   len(lines),
		"batches": len(data.Batches),
		"details": details,
		"state":   state.String(),
	}).Debug("parsed file")
	return data, nil
}

// batchNumber prefers the lote field of the header and falls back to the
// running count.
func batchNumber(header *model.Record, count int) int {
	if v, ok := header.Field("lote_servico"); ok {
		if n, ok := v.Int64(); ok && n > 0 {
			return int(n)
		}
	}
	return count
}
