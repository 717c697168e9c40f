package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"firedays/internal/config"
)

// utf8BOM makes Excel open the file as UTF-8 instead of the locale codepage.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes report files under the configured reports directory.
// Relative paths resolve against it; absolute paths are used as given.
type CSVWriter struct {
	paths *config.Paths
}

func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures a single CSV write.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool
}

// WriteCSV writes or appends records to a CSV file, creating parent
// directories as needed.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Debug("writing csv report",
		slog.String("path", fullPath),
		slog.Int("records", len(options.Records)),
		slog.Bool("append", options.Append))

	file, err := w.open(fullPath, options.Append)
	if err != nil {
		return err
	}
	defer file.Close()

	if !options.Append {
		if options.BOMPrefix {
			if _, err := file.Write(utf8BOM); err != nil {
				return fmt.Errorf("write BOM: %w", err)
			}
		}
	}

	cw := csv.NewWriter(file)
	if !options.Append && len(options.Headers) > 0 {
		if err := cw.Write(options.Headers); err != nil {
			return fmt.Errorf("write header row: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSimpleCSV writes a fresh file with a header row and a BOM.
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// AppendToCSV adds records to an existing file without touching its header.
func (w *CSVWriter) AppendToCSV(filePath string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Records: records,
		Append:  true,
	})
}

func (w *CSVWriter) open(fullPath string, appendMode bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	return file, nil
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return w.paths.GetReportPath(filePath)
}

// StreamWriter emits rows one at a time, for exports too large to hold
// in memory.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter opens a fresh report file and writes the BOM and
// header row. The caller must Close to flush.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	file, err := w.open(fullPath, false)
	if err != nil {
		return nil, err
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := cw.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("write header row: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: cw}, nil
}

func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes buffered rows and closes the file.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
