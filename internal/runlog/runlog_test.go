package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		RunID:     "6f1c2a9e-1d2b-4c3d-8e4f-5a6b7c8d9e0f",
		File:      "REM0614.rem",
		Format:    "cnab240",
		Bank:      "341",
		Valid:     true,
		Errors:    0,
		Warnings:  2,
		Checksum:  "9f86d081884c7d65",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.File = "RET0614.ret"
	e2.Valid = false
	e2.Errors = 3
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "REM0614.rem", entries[0].File)
	assert.Equal(t, "RET0614.ret", entries[1].File)
	assert.False(t, entries[1].Valid)
	assert.Equal(t, 3, entries[1].Errors)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRead_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, logDir), 0o755))
	bad := Header + "\nnot-a-time,id,f,cnab240,341,true,0,0,x\n"
	require.NoError(t, os.WriteFile(Path(dir), []byte(bad), 0o644))

	_, err := Read(dir)
	assert.ErrorContains(t, err, "parsing timestamp")
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	row := MarshalEntry(testEntry())

	_, err := UnmarshalEntry(row[:3])
	assert.ErrorContains(t, err, "expected 9 fields")

	bad := append([]string(nil), row...)
	bad[colValid] = "yes"
	_, err = UnmarshalEntry(bad)
	assert.ErrorContains(t, err, "parsing valid")

	bad = append([]string(nil), row...)
	bad[colErrors] = "x"
	_, err = UnmarshalEntry(bad)
	assert.ErrorContains(t, err, "parsing errors")
}

func TestSeen(t *testing.T) {
	entries := []Entry{testEntry()}
	assert.True(t, Seen(entries, "9f86d081884c7d65"))
	assert.False(t, Seen(entries, "0000000000000000"))
	assert.False(t, Seen([]Entry{{}}, ""))
}
