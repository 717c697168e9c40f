package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the application.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ReportsDir    string
	LogsDir       string

	// Well-known source files inside DataDir (default names; the dataset
	// config may point elsewhere)
	IncidentsCSV      string
	IncidentCountsCSV string
	ClosureDaysCSV    string
	EnrollmentXLSX    string

	// Well-known report files produced by the processor
	CombinedImpactCSV string
	CountySummaryCSV  string
	ImpactWorkbook    string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory, so the binary behaves the same regardless of
// where it is launched from.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return GetPathsFrom(filepath.Dir(exe)), nil
}

// GetPathsFrom builds the path layout under an explicit base directory.
// The processor's -data/-out flags and tests use this directly.
//
// Layout:
//
//	base/
//	  ├── data/        (the four source files)
//	  ├── reports/     (processor output)
//	  └── logs/        (application logs)
func GetPathsFrom(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, DefaultDataDir)
	reportsDir := filepath.Join(baseDir, DefaultReportsDir)

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		ReportsDir:    reportsDir,
		LogsDir:       filepath.Join(baseDir, DefaultLogsDir),

		IncidentsCSV:      filepath.Join(dataDir, DefaultIncidentsFile),
		IncidentCountsCSV: filepath.Join(dataDir, DefaultIncidentCountsFile),
		ClosureDaysCSV:    filepath.Join(dataDir, DefaultClosureDaysFile),
		EnrollmentXLSX:    filepath.Join(dataDir, DefaultEnrollmentFile),

		CombinedImpactCSV: filepath.Join(reportsDir, "impact_by_county_year.csv"),
		CountySummaryCSV:  filepath.Join(reportsDir, "county_summary.csv"),
		ImpactWorkbook:    filepath.Join(reportsDir, "impact_report.xlsx"),
	}
}

// EnsureDirectories creates the data, reports and logs directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}
	return nil
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	slog.Default().Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("source_files",
			slog.String("incidents", p.IncidentsCSV),
			slog.String("incident_counts", p.IncidentCountsCSV),
			slog.String("closure_days", p.ClosureDaysCSV),
			slog.String("enrollment", p.EnrollmentXLSX),
		))
}
