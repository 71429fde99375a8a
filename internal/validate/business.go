package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cnab-dev/cnab/internal/checkdigit"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/taxid"
)

// Business thresholds.
const (
	staleDueDays       = 30
	issueMaxAgeYears   = 5
	futureGenerateDays = 10
)

var billion = decimal.New(1, 9)

// titleLayout locates the fields the business rules read in one detail
// layout. Zero positions mean the layout has no such field.
type titleLayout struct {
	dueStart, dueEnd           int
	valueStart, valueEnd       int
	issueStart, issueEnd       int
	discountStart, discountEnd int
	dateFormat                 string
}

var (
	segmentP = titleLayout{
		dueStart: 78, dueEnd: 85,
		valueStart: 86, valueEnd: 100,
		issueStart: 110, issueEnd: 117,
		discountStart: 151, discountEnd: 165,
		dateFormat: "ddmmyyyy",
	}
	segmentJ = titleLayout{
		dueStart: 92, dueEnd: 99,
		valueStart: 100, valueEnd: 114,
		discountStart: 115, discountEnd: 129,
		dateFormat: "ddmmyyyy",
	}
	detail400 = titleLayout{
		dueStart: 121, dueEnd: 126,
		valueStart: 127, valueEnd: 139,
		issueStart: 151, issueEnd: 156,
		discountStart: 180, discountEnd: 192,
		dateFormat: "ddmmyy",
	}
)

// Tax id positions: type code then number.
type taxLayout struct {
	typeStart, typeEnd     int
	numberStart, numberEnd int
}

var (
	segmentQTax  = taxLayout{typeStart: 18, typeEnd: 18, numberStart: 19, numberEnd: 33}
	detail400Tax = taxLayout{typeStart: 219, typeEnd: 220, numberStart: 221, numberEnd: 234}
)

const (
	barcodeStart = 18
	barcodeEnd   = 61

	header400DateStart = 95
	header400DateEnd   = 100
)

type businessRun struct {
	res   *model.ValidationResult
	today time.Time
	opts  Options
}

func checkBusiness(res *model.ValidationResult, lines []string, det model.Detection, opts Options) {
	b := &businessRun{res: res, today: day(opts.Now()), opts: opts}

	for i, l := range lines {
		n := i + 1
		rt, seg := model.Classify(det.Format, l)
		switch det.Format {
		case model.Format240:
			switch {
			case rt == model.RecordFileHeader:
				b.bank(n, col(l, 1, 3))
				b.generation(n, l, fhDateStart, fhDateEnd, "ddmmyyyy")
			case rt == model.RecordDetail && seg == "P":
				b.title(n, l, segmentP)
			case rt == model.RecordDetail && seg == "J":
				b.title(n, l, segmentJ)
				b.barcode(n, col(l, barcodeStart, barcodeEnd))
			case rt == model.RecordDetail && seg == "Q":
				b.taxID(n, l, segmentQTax)
			}
		case model.Format400:
			switch rt {
			case model.RecordHeader:
				b.bank(n, col(l, bank400Start, bank400End))
				b.generation(n, l, header400DateStart, header400DateEnd, "ddmmyy")
			case model.RecordDetail:
				b.title(n, l, detail400)
				b.taxID(n, l, detail400Tax)
			}
		}
	}

	if rule, ok := opts.Rules[det.BankCode]; ok && rule != nil {
		rule.Check(RuleContext{Result: res, Lines: lines, Detection: det, Today: b.today})
	}
}

func (b *businessRun) warn(n int, field, format string, args ...any) {
	b.res.AddWarning(model.IssueBusiness, n, field, fmt.Sprintf(format, args...))
}

func (b *businessRun) fail(n int, field, format string, args ...any) {
	b.res.AddError(model.IssueBusiness, n, field, fmt.Sprintf(format, args...))
}

func (b *businessRun) bank(n int, code string) {
	if code == "" || b.opts.Banks == nil {
		return
	}
	if !b.opts.Banks.Known(code) {
		b.warn(n, "codigo_banco", "bank code %s is not a known CNAB issuer", code)
		return
	}
	b.res.Pass()
}

func (b *businessRun) generation(n int, line string, start, end int, format string) {
	generated, ok := date(line, start, end, format)
	if !ok {
		return
	}
	if generated.After(b.today.AddDate(0, 0, futureGenerateDays)) {
		b.warn(n, "data_geracao", "generation date %s is more than %d days ahead", generated.Format("2006-01-02"), futureGenerateDays)
		return
	}
	b.res.Pass()
}

func (b *businessRun) title(n int, line string, lay titleLayout) {
	due, hasDue := date(line, lay.dueStart, lay.dueEnd, lay.dateFormat)
	if hasDue {
		if due.Before(b.today.AddDate(0, 0, -staleDueDays)) {
			b.warn(n, "data_vencimento", "due date %s is more than %d days past", due.Format("2006-01-02"), staleDueDays)
		} else {
			b.res.Pass()
		}
	}

	var issue time.Time
	var hasIssue bool
	if lay.issueStart > 0 {
		issue, hasIssue = date(line, lay.issueStart, lay.issueEnd, lay.dateFormat)
	}
	if hasIssue {
		switch {
		case issue.After(b.today):
			b.fail(n, "data_emissao", "issue date %s is in the future", issue.Format("2006-01-02"))
		case issue.Before(b.today.AddDate(-issueMaxAgeYears, 0, 0)):
			b.warn(n, "data_emissao", "issue date %s is more than %d years old", issue.Format("2006-01-02"), issueMaxAgeYears)
		default:
			b.res.Pass()
		}
	}
	if hasDue && hasIssue {
		if due.Before(issue) {
			b.fail(n, "data_vencimento", "due date %s is before issue date %s", due.Format("2006-01-02"), issue.Format("2006-01-02"))
		} else {
			b.res.Pass()
		}
	}

	value, hasValue := amount(line, lay.valueStart, lay.valueEnd)
	if hasValue {
		switch {
		case value.IsNegative():
			b.warn(n, "valor_titulo", "negative amount %s", value.StringFixed(2))
		case value.IsZero():
			b.fail(n, "valor_titulo", "amount is zero")
		case value.GreaterThan(billion):
			b.warn(n, "valor_titulo", "amount %s exceeds one billion", value.StringFixed(2))
		default:
			b.res.Pass()
		}
	}

	if discount, ok := amount(line, lay.discountStart, lay.discountEnd); ok && hasValue {
		switch {
		case discount.IsNegative():
			b.warn(n, "valor_desconto", "negative discount %s", discount.StringFixed(2))
		case discount.GreaterThan(value):
			b.warn(n, "valor_desconto", "discount %s exceeds amount %s", discount.StringFixed(2), value.StringFixed(2))
		default:
			b.res.Pass()
		}
	}
}

func (b *businessRun) barcode(n int, code string) {
	if strings.Trim(code, "0 ") == "" {
		return
	}
	if err := checkdigit.ValidateBarcode(code); err != nil {
		b.fail(n, "codigo_barras", "invalid barcode: %v", err)
		return
	}
	b.res.Pass()
}

// taxID validates the payer's CPF or CNPJ. A missing type with a missing
// number is not checked.
func (b *businessRun) taxID(n int, line string, lay taxLayout) {
	code := strings.TrimSpace(col(line, lay.typeStart, lay.typeEnd))
	number := strings.TrimSpace(col(line, lay.numberStart, lay.numberEnd))
	digits := strings.TrimLeft(number, "0")
	kind := taxid.KindFromCode(code)

	if kind == taxid.KindUnknown {
		if digits != "" {
			b.fail(n, "tipo_inscricao", "document type %q does not identify a CPF or CNPJ", code)
		}
		return
	}
	if digits == "" {
		b.fail(n, "numero_inscricao", "%s declared but number is empty", kind)
		return
	}

	err := taxid.Inspect(kind, number)
	switch {
	case err == nil:
		b.res.Pass()
	case errors.Is(err, taxid.ErrMismatch):
		b.fail(n, "tipo_inscricao", "document type %s does not match a %d-digit number", kind, len(digits))
	case kind == taxid.KindCNPJ && len(digits) <= taxid.CPFLength && taxid.ValidCPF(digits):
		b.fail(n, "tipo_inscricao", "document type CNPJ but number is a valid CPF")
	default:
		b.fail(n, "numero_inscricao", "invalid %s: %v", kind, err)
	}
}

// RuleContext is what a bank rule sees.
type RuleContext struct {
	Result    *model.ValidationResult
	Lines     []string
	Detection model.Detection
	Today     time.Time
}

// BankRule is an extra business check for one bank's layout.
type BankRule interface {
	Check(ctx RuleContext)
}

// BankRuleFunc adapts a function to BankRule.
type BankRuleFunc func(ctx RuleContext)

// Check calls f.
func (f BankRuleFunc) Check(ctx RuleContext) { f(ctx) }

// Rules maps bank codes to their extra checks.
type Rules map[string]BankRule

// DefaultRules registers the major banks with no extra checks yet.
func DefaultRules() Rules {
	noop := BankRuleFunc(func(RuleContext) {})
	return Rules{
		"001": noop,
		"033": noop,
		"104": noop,
		"237": noop,
		"341": noop,
	}
}
