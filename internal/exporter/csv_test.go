package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firedays/internal/config"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	return config.GetPathsFrom(t.TempDir())
}

func TestWriteSimpleCSV(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths)

	err := w.WriteSimpleCSV("out.csv",
		[]string{"County", "Year"},
		[][]string{{"butte", "2018"}, {"sonoma", "2019"}})
	require.NoError(t, err)

	data, err := os.ReadFile(paths.GetReportPath("out.csv"))
	require.NoError(t, err)

	// BOM for Excel
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Contains(t, string(data), "County,Year\n")
	assert.Contains(t, string(data), "butte,2018\n")
}

func TestWriteCSV_NoBOM(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths)

	err := w.WriteCSV("plain.csv", WriteOptions{
		Headers: []string{"County"},
		Records: [][]string{{"butte"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(paths.GetReportPath("plain.csv"))
	require.NoError(t, err)
	assert.Equal(t, "County\nbutte\n", string(data))
}

func TestAppendToCSV(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths)

	require.NoError(t, w.WriteCSV("append.csv", WriteOptions{
		Headers: []string{"County"},
		Records: [][]string{{"butte"}},
	}))
	require.NoError(t, w.AppendToCSV("append.csv", [][]string{{"sonoma"}}))

	data, err := os.ReadFile(paths.GetReportPath("append.csv"))
	require.NoError(t, err)
	assert.Equal(t, "County\nbutte\nsonoma\n", string(data))
}

func TestWriteCSV_AbsolutePath(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths)

	abs := filepath.Join(t.TempDir(), "elsewhere", "abs.csv")
	require.NoError(t, w.WriteCSV(abs, WriteOptions{Headers: []string{"X"}}))

	_, err := os.Stat(abs)
	assert.NoError(t, err)
}

func TestStreamWriter(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths)

	sw, err := w.CreateStreamWriter("stream.csv", []string{"County", "Days"})
	require.NoError(t, err)

	require.NoError(t, sw.WriteRecord([]string{"butte", "14"}))
	require.NoError(t, sw.WriteRecord([]string{"sonoma", "5"}))
	require.NoError(t, sw.Close())

	data, err := os.ReadFile(paths.GetReportPath("stream.csv"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Contains(t, string(data), "butte,14\n")
	assert.Contains(t, string(data), "sonoma,5\n")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "13.40", formatFloat(13.4))
	assert.Equal(t, "0.5000", formatRatio(0.5))
	assert.Equal(t, "29500", formatInt(29500))
}
