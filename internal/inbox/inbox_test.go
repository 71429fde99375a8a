package inbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "import", "b.RET"), "ret")
	write(t, filepath.Join(root, "import", "a.rem"), "remessa")
	write(t, filepath.Join(root, "import", "c.txt"), "t")
	write(t, filepath.Join(root, "import", "d.cnab"), "c")
	write(t, filepath.Join(root, "import", "notes.md"), "skip")
	write(t, filepath.Join(root, "import", "processed", "old.rem"), "done")

	files, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, files, 4)
	assert.Equal(t, "a.rem", files[0].Name)
	assert.Equal(t, int64(7), files[0].Size)
	assert.Equal(t, filepath.Join(root, "import", "a.rem"), files[0].Path)
	assert.Equal(t, "b.RET", files[1].Name)
	assert.Equal(t, "d.cnab", files[3].Name)
}

func TestScan_NoImportDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "import", "a.rem"), "remessa")

	require.NoError(t, MarkProcessed(root, "a.rem"))

	_, err := os.Stat(filepath.Join(root, "import", "a.rem"))
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(ProcessedDir(root), "a.rem"))
	require.NoError(t, err)
	assert.Equal(t, "remessa", string(data))

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestMarkProcessed_Missing(t *testing.T) {
	err := MarkProcessed(t.TempDir(), "ghost.rem")
	assert.ErrorContains(t, err, "moving ghost.rem to processed")
}

func TestAccepts(t *testing.T) {
	assert.True(t, Accepts("X.REM"))
	assert.True(t, Accepts("x.ret"))
	assert.False(t, Accepts("x.csv"))
	assert.False(t, Accepts("rem"))
}
