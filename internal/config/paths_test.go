package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetPaths tests executable-relative path resolution
func TestGetPaths(t *testing.T) {
	t.Run("basic path resolution", func(t *testing.T) {
		paths, err := GetPaths()
		require.NoError(t, err)
		require.NotNil(t, paths)

		assert.True(t, filepath.IsAbs(paths.ExecutableDir), "ExecutableDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.DataDir), "DataDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.ReportsDir), "ReportsDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.LogsDir), "LogsDir should be absolute")

		assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
		assert.Equal(t, filepath.Join(paths.ExecutableDir, "reports"), paths.ReportsDir)
		assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
	})

	t.Run("consistent calls return same paths", func(t *testing.T) {
		paths1, err1 := GetPaths()
		require.NoError(t, err1)

		paths2, err2 := GetPaths()
		require.NoError(t, err2)

		assert.Equal(t, paths1.ExecutableDir, paths2.ExecutableDir)
		assert.Equal(t, paths1.DataDir, paths2.DataDir)
		assert.Equal(t, paths1.EnrollmentXLSX, paths2.EnrollmentXLSX)
	})
}

// TestGetPathsFrom tests the layout under an explicit base directory
func TestGetPathsFrom(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "srv", "firedays")
	paths := GetPathsFrom(base)
	require.NotNil(t, paths)

	assert.Equal(t, base, paths.ExecutableDir)
	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)

	t.Run("source files live in the data directory", func(t *testing.T) {
		assert.Equal(t, filepath.Join(paths.DataDir, "incidents.csv"), paths.IncidentsCSV)
		assert.Equal(t, filepath.Join(paths.DataDir, "incident_counts.csv"), paths.IncidentCountsCSV)
		assert.Equal(t, filepath.Join(paths.DataDir, "closure_days.csv"), paths.ClosureDaysCSV)
		assert.Equal(t, filepath.Join(paths.DataDir, "enrollment.xlsx"), paths.EnrollmentXLSX)
	})

	t.Run("report files live in the reports directory", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(paths.CombinedImpactCSV, paths.ReportsDir))
		assert.True(t, strings.HasPrefix(paths.CountySummaryCSV, paths.ReportsDir))
		assert.True(t, strings.HasPrefix(paths.ImpactWorkbook, paths.ReportsDir))

		assert.Equal(t, "impact_by_county_year.csv", filepath.Base(paths.CombinedImpactCSV))
		assert.Equal(t, "county_summary.csv", filepath.Base(paths.CountySummaryCSV))
		assert.Equal(t, "impact_report.xlsx", filepath.Base(paths.ImpactWorkbook))
	})
}

// TestEnsureDirectories tests directory creation
func TestEnsureDirectories(t *testing.T) {
	t.Run("creates all directories", func(t *testing.T) {
		tempDir := t.TempDir()
		paths := GetPathsFrom(tempDir)

		require.NoError(t, paths.EnsureDirectories())

		for _, dir := range []string{paths.DataDir, paths.ReportsDir, paths.LogsDir} {
			info, err := os.Stat(dir)
			require.NoError(t, err, "directory %s should exist", dir)
			assert.True(t, info.IsDir())
		}
	})

	t.Run("idempotent on existing directories", func(t *testing.T) {
		tempDir := t.TempDir()
		paths := GetPathsFrom(tempDir)

		require.NoError(t, paths.EnsureDirectories())
		require.NoError(t, paths.EnsureDirectories())
	})

	t.Run("fails when a directory is shadowed by a file", func(t *testing.T) {
		tempDir := t.TempDir()
		paths := GetPathsFrom(tempDir)

		require.NoError(t, os.WriteFile(paths.DataDir, []byte("not a directory"), 0644))

		err := paths.EnsureDirectories()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create directory")
	})
}

// TestPathHelpers tests the join helpers
func TestPathHelpers(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "opt", "firedays")
	paths := GetPathsFrom(base)

	t.Run("GetReportPath", func(t *testing.T) {
		got := paths.GetReportPath("butte.csv")
		assert.Equal(t, filepath.Join(base, "reports", "butte.csv"), got)
	})

	t.Run("report path stays under the report directory", func(t *testing.T) {
		got := paths.GetReportPath(filepath.Join("2025", "butte.csv"))
		assert.Equal(t, filepath.Join(base, "reports", "2025", "butte.csv"), got)
	})
}

// TestFileExists tests file existence checks
func TestFileExists(t *testing.T) {
	tempDir := t.TempDir()

	existing := filepath.Join(tempDir, "incidents.csv")
	require.NoError(t, os.WriteFile(existing, []byte("county,year\n"), 0644))

	assert.True(t, FileExists(existing))
	assert.False(t, FileExists(filepath.Join(tempDir, "missing.csv")))

	t.Run("directories count as existing", func(t *testing.T) {
		assert.True(t, FileExists(tempDir))
	})
}

// TestLogPathResolution exercises the debug logging helper
func TestLogPathResolution(t *testing.T) {
	paths := GetPathsFrom(t.TempDir())
	assert.NotPanics(t, func() { paths.LogPathResolution() })
}
