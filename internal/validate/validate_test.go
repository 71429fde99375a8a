package validate

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnab-dev/cnab/internal/fixtures"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
	"github.com/cnab-dev/cnab/internal/schema/builtin"
)

var (
	testNow = time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)
	today   = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
)

func det240(bank string) model.Detection {
	return model.Detection{Format: model.Format240, BankCode: bank, Confidence: 1}
}

func det400(bank string) model.Detection {
	return model.Detection{Format: model.Format400, BankCode: bank, Confidence: 1}
}

func validateLines(t *testing.T, lines []string, det model.Detection, mutate ...func(*Options)) *model.ValidationResult {
	t.Helper()
	opts := DefaultOptions()
	opts.Now = func() time.Time { return testNow }
	for _, m := range mutate {
		m(&opts)
	}
	res, err := New(schema.NewLoader(builtin.Source()), opts).ValidateFile(fixtures.Join(lines...), det)
	require.NoError(t, err)
	require.True(t, res.Finalized())
	return res
}

// file240 wraps details in a single batch with correct counts and no total.
func file240(details ...string) []string {
	lines := []string{fixtures.FileHeader240("341", today), fixtures.BatchHeader240("341", 1, today)}
	lines = append(lines, details...)
	lines = append(lines, fixtures.BatchTrailer240("341", 1, len(details), 0))
	return append(lines, fixtures.FileTrailer240("341", 1, len(lines)+1))
}

func onLine(issues []model.Issue, line int) []model.Issue {
	var out []model.Issue
	for _, i := range issues {
		if i.Line == line {
			out = append(out, i)
		}
	}
	return out
}

func hasMessage(issues []model.Issue, substr string) bool {
	for _, i := range issues {
		if strings.Contains(i.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateFile_ScenarioA(t *testing.T) {
	res := validateLines(t, fixtures.ScenarioA("341", testNow), det240("341"))

	assert.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings, "warnings: %v", res.Warnings)
	assert.NotEmpty(t, res.FieldValidations)

	s := res.Summary
	assert.Equal(t, s.TotalChecks, s.PassedChecks+s.FailedChecks+s.WarningChecks)
	assert.Greater(t, s.PassedChecks, 0)

	o, ok := res.FieldValidations["3:valor_titulo"]
	require.True(t, ok)
	assert.True(t, o.Valid)
	assert.Equal(t, 3, o.Line)
}

func TestValidateFile_ScenarioB(t *testing.T) {
	res := validateLines(t, fixtures.ScenarioB("341", testNow), det240("341"))

	assert.False(t, res.Valid)
	integrity := res.ErrorsOfType(model.IssueIntegrity)
	require.Len(t, integrity, 1, "errors: %v", res.Errors)
	assert.Equal(t, 4, integrity[0].Line)
	assert.Contains(t, integrity[0].Message, "declares 2 records, found 1")
	assert.Len(t, res.Errors, 1)
}

func TestValidateFile_ScenarioC(t *testing.T) {
	res := validateLines(t, fixtures.ScenarioC("237", testNow), det400("237"))

	assert.Empty(t, res.ErrorsOfType(model.IssueStructural))
	assert.True(t, res.Valid, "errors: %v", res.Errors)
}

func TestValidateFile_400(t *testing.T) {
	res := validateLines(t, fixtures.File400("237", testNow, 3), det400("237"))
	assert.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings, "warnings: %v", res.Warnings)
}

func TestValidateFile_WrongLineLength(t *testing.T) {
	lines := fixtures.ScenarioA("341", testNow)
	lines[2] = lines[2][:239]

	res := validateLines(t, lines, det240("341"))
	assert.False(t, res.Valid)

	structural := onLine(res.ErrorsOfType(model.IssueStructural), 3)
	require.NotEmpty(t, structural)
	assert.Equal(t, "line length is 239, expected 240", structural[0].Message)
	assert.Empty(t, onLine(res.ErrorsOfType(model.IssueStructural), 2))
	assert.Empty(t, onLine(res.ErrorsOfType(model.IssueStructural), 4))
}

func TestValidateFile_PerLineCap(t *testing.T) {
	bad := fixtures.Line(fixtures.SegmentP("341", 1, 1, today.AddDate(0, 0, 5), today, 12345)).
		Set(18, "ABCDE").Set(24, "XXXXXXXXXXXX").Set(58, "X").Set(59, "X").
		Set(78, "ABCDEFGH").Set(86, "XXXXXXXXXXXXXXX").
		String()
	lines := file240(bad)

	res := validateLines(t, lines, det240("341"), func(o *Options) { o.MaxErrorsPerLine = 3 })

	assert.Len(t, onLine(res.ErrorsOfType(model.IssueField), 3), 3)
	assert.True(t, hasMessage(onLine(res.Warnings, 3), "remaining checks skipped"))
	_, recorded := res.FieldValidations["3:valor_titulo"]
	assert.False(t, recorded, "checks after the cap are skipped")

	res = validateLines(t, lines, det240("341"), func(o *Options) { o.MaxErrorsPerLine = 0 })
	assert.Len(t, onLine(res.ErrorsOfType(model.IssueField), 3), 6)
}

func TestValidateFile_UnknownRecordAndSegment(t *testing.T) {
	odd := []byte(fixtures.SegmentP("341", 1, 2, today.AddDate(0, 0, 5), today, 100))
	odd[13] = 'Z'
	weird := []byte(fixtures.SegmentP("341", 1, 3, today.AddDate(0, 0, 5), today, 100))
	weird[7] = '7'
	lines := file240(fixtures.SegmentP("341", 1, 1, today.AddDate(0, 0, 5), today, 100), string(odd), string(weird))

	res := validateLines(t, lines, det240("341"))
	assert.True(t, hasMessage(onLine(res.WarningsOfType(model.IssueStructural), 4), `unrecognized segment "Z"`))
	assert.True(t, hasMessage(onLine(res.ErrorsOfType(model.IssueStructural), 5), `unknown record type "7"`))
}

func TestValidateFile_ControlCharacter(t *testing.T) {
	lines := fixtures.ScenarioA("341", testNow)
	lines[2] = fixtures.Line(lines[2]).Set(200, "\t").String()

	res := validateLines(t, lines, det240("341"))
	assert.True(t, hasMessage(onLine(res.ErrorsOfType(model.IssueStructural), 3), "control character 0x09 at column 200"))
}

func TestValidateFile_MultiByteCharacters(t *testing.T) {
	lines := fixtures.ScenarioA("341", testNow)
	lines[2] = lines[2][:199] + "É" + lines[2][200:]

	res := validateLines(t, lines, det240("341"))
	assert.True(t, hasMessage(onLine(res.WarningsOfType(model.IssueStructural), 3), "multi-byte characters"))
	assert.True(t, hasMessage(onLine(res.ErrorsOfType(model.IssueStructural), 3), "line length is 241"))
}

func TestValidateFile_BankCodes(t *testing.T) {
	res := validateLines(t, fixtures.ScenarioA("341", testNow), det240("237"))
	assert.Len(t, res.WarningsOfType(model.IssueStructural), 5, "every line carries a bank code")
	assert.True(t, res.Valid)

	res = validateLines(t, fixtures.ScenarioA("999", testNow), det240("999"))
	assert.True(t, hasMessage(res.WarningsOfType(model.IssueBusiness), "bank code 999 is not a known CNAB issuer"))

	lines := fixtures.ScenarioA("341", testNow)
	lines[2] = fixtures.Line(lines[2]).Set(1, "3X1").String()
	res = validateLines(t, lines, det240("341"))
	assert.True(t, hasMessage(onLine(res.ErrorsOfType(model.IssueStructural), 3), "not 3 digits"))
}

func TestValidateFile_MissingTrailerAndOrder(t *testing.T) {
	lines := fixtures.ScenarioA("341", testNow)
	lines = lines[:len(lines)-1]

	res := validateLines(t, lines, det240("341"))
	assert.True(t, hasMessage(res.ErrorsOfType(model.IssueStructural), "missing file trailer"))
	assert.True(t, hasMessage(res.ErrorsOfType(model.IssueIntegrity), "expected exactly one file trailer, found 0"))

	lines = fixtures.ScenarioA("341", testNow)
	lines[1], lines[2] = lines[2], lines[1]
	res = validateLines(t, lines, det240("341"))
	order := onLine(res.ErrorsOfType(model.IssueStructural), 2)
	require.Len(t, order, 1)
	assert.Contains(t, order[0].Message, "record order")
}

func TestValidateFile_UnterminatedBatch(t *testing.T) {
	all := fixtures.ScenarioA("341", testNow)
	lines := []string{all[0], all[1], all[2], all[4]}

	res := validateLines(t, lines, det240("341"))
	assert.True(t, hasMessage(onLine(res.ErrorsOfType(model.IssueIntegrity), 2), "has no trailer"))
}

func TestValidateFile_Sequences(t *testing.T) {
	p := func(seq int) string {
		return fixtures.SegmentP("341", 1, seq, today.AddDate(0, 0, 5), today, 100)
	}
	lines := file240(p(1), p(3), p(4))
	lines[1] = fixtures.Line(lines[1]).Set(4, "0002").String()

	res := validateLines(t, lines, det240("341"))
	integrity := res.ErrorsOfType(model.IssueIntegrity)
	assert.True(t, hasMessage(onLine(integrity, 2), "batch number 2, expected 1"))
	assert.True(t, hasMessage(onLine(integrity, 4), "record sequence 3, expected 2"))
	assert.True(t, hasMessage(onLine(integrity, 5), "record sequence 4, expected 3"))
}

func TestValidateFile_FileTrailerCounts(t *testing.T) {
	lines := fixtures.ScenarioA("341", testNow)
	lines[4] = fixtures.FileTrailer240("341", 2, 7)

	res := validateLines(t, lines, det240("341"))
	integrity := onLine(res.ErrorsOfType(model.IssueIntegrity), 5)
	assert.True(t, hasMessage(integrity, "declares 2 batches, found 1"))
	assert.True(t, hasMessage(integrity, "declares 7 records, file has 5"))
}

func TestValidateFile_FinancialTotals(t *testing.T) {
	lines := fixtures.ScenarioA("341", testNow)
	lines[3] = fixtures.BatchTrailer240("341", 1, 1, 99999)

	res := validateLines(t, lines, det240("341"))
	errs := onLine(res.ErrorsOfType(model.IssueIntegrity), 4)
	require.Len(t, errs, 1)
	assert.Equal(t, "trailer total 999.99 does not match segment P sum 123.45", errs[0].Message)

	lines[3] = fixtures.BatchTrailer240("341", 1, 1, 12346)
	res = validateLines(t, lines, det240("341"))
	assert.Empty(t, res.ErrorsOfType(model.IssueIntegrity), "0.01 is within tolerance")
}

func TestValidateFile_400Integrity(t *testing.T) {
	lines := fixtures.File400("237", testNow, 2)
	lines[1] = fixtures.Line(lines[1]).Num(395, 6, 7).String()
	lines[3] = fixtures.Trailer400(9, 100)

	res := validateLines(t, lines, det400("237"))
	integrity := res.ErrorsOfType(model.IssueIntegrity)
	assert.True(t, hasMessage(onLine(integrity, 2), "sequence number 7, expected 2"))
	assert.True(t, hasMessage(onLine(integrity, 4), "trailer sequence 9, file has 4 records"))
	assert.True(t, hasMessage(onLine(integrity, 4), "trailer total 1.00 does not match detail sum 30.00"))
}

func TestValidateFile_CrossConsistency(t *testing.T) {
	lines := fixtures.ScenarioA("341", testNow)
	lines[1] = fixtures.BatchHeader240("341", 1, today.AddDate(0, 0, -1))
	lines[4] = fixtures.Line(lines[4]).Set(1, "237").String()

	res := validateLines(t, lines, det240("341"))
	warnings := res.WarningsOfType(model.IssueIntegrity)
	assert.True(t, hasMessage(onLine(warnings, 2), "batch date 2024-06-13 differs from file date 2024-06-14"))
	assert.True(t, hasMessage(onLine(warnings, 5), "file trailer bank 237 differs from header bank 341"))
}

func TestValidateFile_BusinessDates(t *testing.T) {
	lines := file240(
		fixtures.SegmentP("341", 1, 1, today.AddDate(0, 0, -40), today.AddDate(0, 0, -50), 100),
		fixtures.SegmentP("341", 1, 2, today.AddDate(0, 0, 10), today.AddDate(0, 0, 5), 100),
		fixtures.SegmentP("341", 1, 3, today.AddDate(0, 0, -2), today.AddDate(0, 0, -1), 100),
		fixtures.SegmentP("341", 1, 4, today.AddDate(0, 0, 10), today.AddDate(-6, 0, 0), 100),
	)
	lines[0] = fixtures.FileHeader240("341", today.AddDate(0, 0, 15))

	res := validateLines(t, lines, det240("341"))
	errs := res.ErrorsOfType(model.IssueBusiness)
	warns := res.WarningsOfType(model.IssueBusiness)

	assert.True(t, hasMessage(onLine(warns, 1), "more than 10 days ahead"))
	assert.True(t, hasMessage(onLine(warns, 3), "more than 30 days past"))
	assert.True(t, hasMessage(onLine(errs, 4), "issue date 2024-06-19 is in the future"))
	assert.True(t, hasMessage(onLine(errs, 5), "due date 2024-06-12 is before issue date 2024-06-13"))
	assert.True(t, hasMessage(onLine(warns, 6), "more than 5 years old"))
	assert.Empty(t, onLine(errs, 3))
}

func TestValidateFile_BusinessAmounts(t *testing.T) {
	discounted := fixtures.Line(fixtures.SegmentP("341", 1, 3, today.AddDate(0, 0, 5), today, 1000)).
		Num(151, 15, 2000).String()
	lines := file240(
		fixtures.SegmentP("341", 1, 1, today.AddDate(0, 0, 5), today, 0),
		fixtures.SegmentP("341", 1, 2, today.AddDate(0, 0, 5), today, 200000000000),
		discounted,
	)

	res := validateLines(t, lines, det240("341"))
	assert.True(t, hasMessage(onLine(res.ErrorsOfType(model.IssueBusiness), 3), "amount is zero"))
	assert.True(t, hasMessage(onLine(res.WarningsOfType(model.IssueBusiness), 4), "exceeds one billion"))
	assert.True(t, hasMessage(onLine(res.WarningsOfType(model.IssueBusiness), 5), "discount 20.00 exceeds amount 10.00"))
}

func TestValidateFile_TaxIDs(t *testing.T) {
	lines := file240(
		fixtures.SegmentQ("341", 1, 1, 1, "52998224724"),
		fixtures.SegmentQ("341", 1, 2, 1, fixtures.CNPJ),
		fixtures.SegmentQ("341", 1, 3, 2, fixtures.CPF),
		fixtures.SegmentQ("341", 1, 4, 3, fixtures.CPF),
		fixtures.SegmentQ("341", 1, 5, 2, fixtures.CNPJ),
		fixtures.SegmentQ("341", 1, 6, 1, "11111111111"),
	)

	res := validateLines(t, lines, det240("341"))
	errs := res.ErrorsOfType(model.IssueBusiness)
	require.Len(t, errs, 5, "errors: %v", errs)
	assert.True(t, hasMessage(onLine(errs, 3), "invalid CPF"))
	assert.True(t, hasMessage(onLine(errs, 4), "document type CPF does not match a 14-digit number"))
	assert.True(t, hasMessage(onLine(errs, 5), "document type CNPJ but number is a valid CPF"))
	assert.True(t, hasMessage(onLine(errs, 6), "does not identify a CPF or CNPJ"))
	assert.Empty(t, onLine(errs, 7))
	assert.True(t, hasMessage(onLine(errs, 8), "invalid CPF"))
}

func TestValidateFile_SegmentJBarcode(t *testing.T) {
	corrupt := []byte(fixtures.Barcode)
	corrupt[4] = '0'
	lines := file240(
		fixtures.SegmentJ("341", 1, 1, fixtures.Barcode, today.AddDate(0, 0, 3), 12345),
		fixtures.SegmentJ("341", 1, 2, string(corrupt), today.AddDate(0, 0, 3), 12345),
	)

	res := validateLines(t, lines, det240("341"))
	errs := res.ErrorsOfType(model.IssueBusiness)
	assert.Empty(t, onLine(errs, 3))
	assert.True(t, hasMessage(onLine(errs, 4), "invalid barcode"))
}

func TestValidateFile_LayerToggles(t *testing.T) {
	lines := fixtures.ScenarioB("341", testNow)
	res := validateLines(t, lines, det240("341"), func(o *Options) {
		o.Field = false
		o.Integrity = false
		o.Business = false
	})
	assert.True(t, res.Valid, "integrity is off")
	assert.Empty(t, res.FieldValidations)
}

func TestValidateFile_BankRules(t *testing.T) {
	var called bool
	rules := Rules{"341": BankRuleFunc(func(ctx RuleContext) {
		called = true
		assert.Equal(t, today, ctx.Today)
		ctx.Result.AddWarning(model.IssueBusiness, 0, "", "custom rule")
	})}

	res := validateLines(t, fixtures.ScenarioA("341", testNow), det240("341"), func(o *Options) { o.Rules = rules })
	assert.True(t, called)
	assert.True(t, hasMessage(res.Warnings, "custom rule"))

	assert.Len(t, DefaultRules(), 5)
}

func TestValidateFile_EmptyAndStrict(t *testing.T) {
	p := New(schema.NewLoader(builtin.Source()), DefaultOptions())
	_, err := p.ValidateFile("\n\n", det240("341"))
	assert.ErrorIs(t, err, model.ErrEmptyInput)

	empty := schema.NewLoader(schema.FSSource{FS: fstest.MapFS{}})
	content := fixtures.Join(fixtures.ScenarioA("341", testNow)...)

	res, err := New(empty, DefaultOptions()).ValidateFile(content, det240("341"))
	require.NoError(t, err)
	assert.Len(t, res.WarningsOfType(model.IssueSchema), 5)

	strict := DefaultOptions()
	strict.Strict = true
	_, err = New(empty, strict).ValidateFile(content, det240("341"))
	assert.Error(t, err)
}
