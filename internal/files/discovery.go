package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "firedays/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Discovery provides source-file discovery inside the data directory
type Discovery struct {
	dataDir string
}

// NewDiscovery creates a new file discovery instance rooted at the data
// directory
func NewDiscovery(dataDir string) *Discovery {
	return &Discovery{dataDir: dataDir}
}

// DataDir returns the directory this discovery is rooted at.
func (d *Discovery) DataDir() string {
	return d.dataDir
}

// ResolveSource finds one source file: the configured name when it exists,
// otherwise the first case-insensitive match of the fallback patterns.
// Returns ErrSourceMissing when nothing matches.
func (d *Discovery) ResolveSource(name string, patterns ...string) (string, error) {
	exact := filepath.Join(d.dataDir, name)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		return exact, nil
	}

	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory %s: %w", d.dataDir, err)
	}

	for _, pattern := range patterns {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			matched, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(entry.Name()))
			if err != nil {
				return "", fmt.Errorf("bad glob pattern %q: %w", pattern, err)
			}
			if matched {
				return filepath.Join(d.dataDir, entry.Name()), nil
			}
		}
	}

	return "", fmt.Errorf("%s (patterns %v): %w", name, patterns, apperrors.ErrSourceMissing)
}

// ListSourceFiles lists the CSV and Excel files in the data directory,
// sorted by name, for the dataset status endpoint.
func (d *Discovery) ListSourceFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", d.dataDir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isSourceFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.dataDir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// Accessible reports whether the data directory can be read.
func (d *Discovery) Accessible() bool {
	_, err := os.ReadDir(d.dataDir)
	return err == nil
}

// isSourceFile reports whether the name has a source-data extension.
func isSourceFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}
