// Package inbox lists CNAB files waiting in a workspace and moves them out
// once processed.
package inbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo describes a file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Extensions are the file suffixes Scan picks up: remittance (.rem),
// return (.ret) and the generic ones banks also use.
var Extensions = []string{".rem", ".ret", ".txt", ".cnab"}

// importDir is the subdirectory for incoming files.
const importDir = "import"

// processedDir is the subdirectory for processed files.
const processedDir = "import/processed"

// Dir returns the import directory of a workspace.
func Dir(repoRoot string) string { return filepath.Join(repoRoot, importDir) }

// ProcessedDir returns where processed files are moved.
func ProcessedDir(repoRoot string) string { return filepath.Join(repoRoot, processedDir) }

// Accepts reports whether name has one of Extensions.
func Accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Scan returns CNAB files in <repoRoot>/import/, sorted by name.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := Dir(repoRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !Accepts(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/. A file of
// the same name already there is replaced.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(Dir(repoRoot), fileName)
	dstDir := ProcessedDir(repoRoot)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
