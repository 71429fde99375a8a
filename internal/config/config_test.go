package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Parser.Strict = true
	cfg.Validation.Business = false
	cfg.Validation.SubType = "cobranca"
	cfg.Workers = 8

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.False(t, cfg.Parser.Strict)
	assert.True(t, cfg.Parser.Trim)
	assert.True(t, cfg.Parser.ValidateRanges)
	assert.True(t, cfg.Validation.Structural)
	assert.True(t, cfg.Validation.Field)
	assert.True(t, cfg.Validation.Integrity)
	assert.True(t, cfg.Validation.Business)
	assert.Equal(t, 10, cfg.Validation.MaxErrorsPerLine)
	assert.Equal(t, "schemas", cfg.Schemas.Dir)
	assert.Equal(t, filepath.Join("banks", "banks.csv"), cfg.Banks.File)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("validation:\n  business: false\nworkers: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Validation.Business)
	assert.True(t, cfg.Validation.Structural)
	assert.Equal(t, 10, cfg.Validation.MaxErrorsPerLine)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadRejectsZeroWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("workers: 0\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "workers must be at least 1")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "max_errors_per_line: 10")
	assert.Contains(t, contents, "validate_ranges: true")
	assert.Contains(t, contents, "dir: schemas")
	assert.Contains(t, contents, "workers: 4")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvStrict, "true")
	unsetenv(t, EnvWorkers)
	unsetenv(t, EnvSchemaDir)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CNAB_WORKERS=6\nCNAB_SCHEMA_DIR=/etc/cnab/schemas\nCNAB_LOG_LEVEL=error\n"), 0o644))

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, dir))
	assert.Equal(t, "debug", cfg.Logging.Level, "process environment wins over .env")
	assert.True(t, cfg.Parser.Strict)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, "/etc/cnab/schemas", cfg.Schemas.Dir)
}

// unsetenv clears key for the test; t.Setenv restores the old value after.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv(EnvWorkers, "many")
	assert.ErrorContains(t, ApplyEnv(Default(), t.TempDir()), "expected an integer")

	t.Setenv(EnvWorkers, "0")
	assert.ErrorContains(t, ApplyEnv(Default(), t.TempDir()), "at least 1")

	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvStrict, "maybe")
	assert.ErrorContains(t, ApplyEnv(Default(), t.TempDir()), "expected a boolean")
}

func TestResolve(t *testing.T) {
	assert.Equal(t, filepath.Join("ws", "schemas"), Resolve("ws", "schemas"))
	assert.Equal(t, "/abs", Resolve("ws", "/abs"))
	assert.Equal(t, "", Resolve("ws", ""))
}
