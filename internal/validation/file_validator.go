package validation

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FileValidator provides source-file validation shared by the processor and
// the server's readiness checks
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateDataDirectory validates that the data directory exists and, when a
// pattern is given, notes how many files match it. An empty match set is not
// an error — the directory may still be getting populated.
func (v *FileValidator) ValidateDataDirectory(dir string, requiredPattern string) error {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("data directory %s does not exist", dir)
	case err != nil:
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", dir)
	}

	if requiredPattern == "" {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, requiredPattern))
	if err != nil {
		return fmt.Errorf("failed to check for files: %w", err)
	}
	if len(matches) == 0 {
		v.logger.Warn("No files matching pattern found",
			slog.String("directory", dir),
			slog.String("pattern", requiredPattern))
		return nil
	}

	v.logger.Info("Data directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", len(matches)),
		slog.String("pattern", requiredPattern))
	return nil
}

// ValidateOutputDirectory ensures the report directory exists or can be
// created, and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// A probe write catches read-only mounts that MkdirAll can't see.
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Info("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("file %s does not exist", path)
	case err != nil:
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	case info.IsDir():
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateCSVFile checks that a file is a non-empty CSV with a parseable
// header containing the required columns. Column matching is
// case-insensitive, like the loaders'.
func (v *FileValidator) ValidateCSVFile(path string, requiredColumns ...string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		return fmt.Errorf("file %s is not a CSV file (extension: %s)", path, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("file %s has no parseable header: %w", path, err)
	}

	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[strings.ToLower(strings.TrimSpace(name))] = true
	}
	for _, col := range requiredColumns {
		if !present[strings.ToLower(col)] {
			return fmt.Errorf("file %s is missing required column %q", path, col)
		}
	}

	return nil
}

// ValidateExcelFile checks that a file is an openable workbook with at
// least one sheet
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		return fmt.Errorf("file %s is not an Excel file (extension: %s)", path, ext)
	}

	// Office lock files start with ~$ and are not real workbooks.
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("file %s is not a readable workbook: %w", path, err)
	}
	defer f.Close()

	if len(f.GetSheetList()) == 0 {
		return fmt.Errorf("file %s has no sheets", path)
	}

	return nil
}
