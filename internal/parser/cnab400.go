package parser

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/model"
)

// CNAB400 parses flat 400-column files.
type CNAB400 struct{}

// Format returns model.Format400.
func (p *CNAB400) Format() model.Format { return model.Format400 }

// Parse walks the lines through Transition400.
func (p *CNAB400) Parse(lines []string, schemas Schemas, det model.Detection, res *model.ParseResult, opts Options) (*model.ParsedData, error) {
	b := model.NewBuilder(model.Format400)
	state := WaitingHeader
	details := 0

	for i, line := range lines {
		n := i + 1
		rt, seg := model.Classify(model.Format400, line)
		rec, err := decode(line, n, rt, seg, schemas.For(rt, seg), opts)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}

		next, effect, ok := Transition400(state, rt)
		if !ok && state != Error400 {
			res.AddError(model.IssueParse, n, "", fmt.Sprintf("unexpected %s record in state %s", rt, state))
		}
		state = next

		switch effect {
		case EffectSetHeader:
			if !b.SetHeader(rec) {
				res.AddError(model.IssueParse, n, "", "duplicate header")
			}
		case EffectAddDetail:
			details++
			b.AddFlatDetail(rec)
		case EffectSetTrailer:
			if !b.SetTrailer(rec) {
				res.AddError(model.IssueParse, n, "", "duplicate trailer")
			}
		default:
			b.AddUnbatched(rec)
		}
	}

	data, _ := b.Build(model.Metadata{
		BankCode:     det.BankCode,
		BankName:     det.BankName,
		TotalLines:   len(lines),
		TotalRecords: details,
	})
	if state != Finished400 && state != Error400 {
		res.AddError(model.IssueParse, 0, "", fmt.Sprintf("unexpected end of file in state %s", state))
	}
	opts.logger().WithFields(logrus.Fields{
		"format":  model.Format400,
		"lines":   len(lines),
		"details": details,
		"state":   state.String(),
	}).Debug("parsed file")
	return data, nil
}
