package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnab-dev/cnab/internal/fixtures"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
	"github.com/cnab-dev/cnab/internal/schema/builtin"
)

var testNow = time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)

func newService(mutate ...func(*Options)) *Service {
	var n atomic.Int64
	opts := DefaultOptions()
	opts.Now = func() time.Time { return testNow }
	opts.NewID = func() string { return fmt.Sprintf("run-%d", n.Add(1)) }
	for _, m := range mutate {
		m(&opts)
	}
	return New(schema.NewLoader(builtin.Source()), nil, opts)
}

func TestProcess_Valid240(t *testing.T) {
	s := newService()
	report, err := s.Process("a.rem", []byte(fixtures.Join(fixtures.ScenarioA("341", testNow)...)))
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, model.Format240, report.Detection.Format)
	assert.Equal(t, "ITAU", report.Detection.BankName)
	assert.True(t, report.Valid())
	require.NotNil(t, report.Validation)
	assert.Equal(t, "run-1", report.Parse.Metadata.RunID)
	assert.Equal(t, "run-1", report.Parse.Data.Metadata.RunID)
	require.NotNil(t, report.Summary)
	assert.Equal(t, "123.45", report.Summary.Total.StringFixed(2))
	assert.Equal(t, 1, report.Stats["segment_p"])

	errs, warnings := report.Counts()
	assert.Zero(t, errs)
	assert.Zero(t, warnings)
}

func TestProcess_InvalidIntegrity(t *testing.T) {
	report, err := newService().Process("b.rem", []byte(fixtures.Join(fixtures.ScenarioB("341", testNow)...)))
	require.NoError(t, err)

	assert.True(t, report.Parse.Success, "the parser does not check counts")
	assert.False(t, report.Valid())
	assert.Len(t, report.Validation.ErrorsOfType(model.IssueIntegrity), 1)

	e := report.Entry(testNow)
	assert.False(t, e.Valid)
	assert.Equal(t, 1, e.Errors)
	assert.Equal(t, "b.rem", e.File)
	assert.Equal(t, "cnab240", e.Format)
	assert.Equal(t, "341", e.Bank)
	assert.Len(t, e.Checksum, 16)
}

func TestProcess_400AndSkipValidation(t *testing.T) {
	s := newService(func(o *Options) { o.SkipValidation = true })
	report, err := s.Process("c.ret", []byte(fixtures.Join(fixtures.File400("237", testNow, 3)...)))
	require.NoError(t, err)

	assert.Equal(t, model.Format400, report.Detection.Format)
	assert.Nil(t, report.Validation)
	assert.True(t, report.Valid())
	assert.Equal(t, "60.00", report.Summary.Total.StringFixed(2))
}

func TestProcess_ForcedFormat(t *testing.T) {
	s := newService(func(o *Options) { o.Format = model.Format240 })
	lines := fixtures.ScenarioA("341", testNow)
	lines[2] = lines[2][:200]

	report, err := s.Process("short.rem", []byte(fixtures.Join(lines...)))
	require.NoError(t, err)
	assert.InDelta(t, 0.8, report.Detection.Confidence, 1e-9)
	assert.False(t, report.Valid())
}

func TestProcess_Latin1(t *testing.T) {
	lines := fixtures.ScenarioA("341", testNow)
	lines[0] = fixtures.Line(lines[0]).Set(73, "JOS\xc9 SERVI\xc7OS").String()

	report, err := newService().Process("latin1.rem", []byte(fixtures.Join(lines...)))
	require.NoError(t, err)
	assert.True(t, report.Valid(), "errors: %v", report.Validation.Errors)
	name, ok := report.Parse.Data.Header.Field("nome_empresa")
	require.True(t, ok)
	assert.Equal(t, "JOSE SERVICOS LTDA", name.Text)
}

func TestProcess_Errors(t *testing.T) {
	s := newService()

	_, err := s.Process("empty.rem", nil)
	assert.ErrorIs(t, err, model.ErrEmptyInput)

	_, err = s.Process("odd.rem", []byte("not cnab\n"))
	assert.ErrorContains(t, err, "detecting format")

	_, err = s.ProcessFile(filepath.Join(t.TempDir(), "missing.rem"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcessAll(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, fmt.Sprintf("f%d.rem", i))
		content := fixtures.Join(fixtures.File240("341", testNow, i%3+1)...)
		if i == 4 {
			content = "garbage\n"
		}
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}

	results := newService(func(o *Options) { o.Workers = 3 }).ProcessAll(context.Background(), paths)
	require.Len(t, results, 6)

	ids := make(map[string]bool)
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
		if i == 4 {
			assert.Error(t, r.Err)
			continue
		}
		require.NoError(t, r.Err)
		assert.True(t, r.Report.Valid(), "%s: %v", r.Path, r.Report.Validation.Errors)
		assert.Equal(t, i%3+1, r.Report.Parse.Metadata.TotalBatches)
		ids[r.Report.RunID] = true
	}
	assert.Len(t, ids, 5, "every file gets its own run id")
}

func TestProcessAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newService().ProcessAll(ctx, []string{"a.rem", "b.rem"})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Error(t, r.Err)
		assert.Nil(t, r.Report)
	}
}
