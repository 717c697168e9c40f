package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"firedays/internal/config"
	"firedays/internal/dataset"
	"firedays/internal/exporter"
	"firedays/internal/files"
	"firedays/internal/infrastructure"
	"firedays/internal/validation"
	"firedays/pkg/contracts/domain"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	formatBoth = "both"
)

type options struct {
	dataDir string
	outDir  string
	format  string
	county  string
}

func main() {
	dataDir := flag.String("data", "", "directory holding the source files (defaults to data/ relative to executable)")
	outDir := flag.String("out", "", "output directory for reports (defaults to reports/ relative to executable)")
	format := flag.String("format", formatBoth, "report format: csv, xlsx or both")
	county := flag.String("county", "", "restrict reports to a single county")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts := options{
		dataDir: *dataDir,
		outDir:  *outDir,
		format:  *format,
		county:  *county,
	}
	if opts.dataDir == "" {
		opts.dataDir = paths.DataDir
	}
	if opts.outDir == "" {
		opts.outDir = paths.ReportsDir
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	if err := run(opts, cfg, logger); err != nil {
		logger.Error("Processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run loads the four source files, builds the county×year dataset and writes
// the requested reports into opts.outDir.
func run(opts options, cfg *config.Config, logger *slog.Logger) error {
	start := time.Now()

	switch opts.format {
	case formatCSV, formatXLSX, formatBoth:
	default:
		return fmt.Errorf("unknown format %q (expected csv, xlsx or both)", opts.format)
	}

	logger.Info("Starting impact report processing",
		slog.String("data_dir", opts.dataDir),
		slog.String("output_dir", opts.outDir),
		slog.String("format", opts.format),
		slog.String("county", opts.county))

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateDataDirectory(opts.dataDir, "*.csv"); err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	if err := validator.ValidateOutputDirectory(opts.outDir); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}

	snapshot, err := loadSnapshot(opts.dataDir, cfg, logger)
	if err != nil {
		return err
	}

	rows := snapshot.Rows()
	if opts.county != "" {
		county := dataset.NormalizeCounty(opts.county)
		rows, err = snapshot.CountySeries(county, 0, 0)
		if err != nil {
			return fmt.Errorf("county %q: %w", opts.county, err)
		}
	}
	if len(rows) == 0 {
		return fmt.Errorf("no county-year rows survived the join; nothing to export")
	}

	reportPaths := &config.Paths{
		DataDir:    opts.dataDir,
		ReportsDir: opts.outDir,
	}

	if opts.format == formatCSV || opts.format == formatBoth {
		impactExporter := exporter.NewImpactExporter(reportPaths)
		if err := impactExporter.ExportCombined(rows, "impact_by_county_year.csv"); err != nil {
			return err
		}
		if err := impactExporter.ExportCountySummary(rows, "county_summary.csv"); err != nil {
			return err
		}
		if err := impactExporter.ExportPerCounty(rows, "counties"); err != nil {
			return err
		}
	}

	if opts.format == formatXLSX || opts.format == formatBoth {
		workbook := exporter.NewWorkbookExporter(reportPaths)
		if err := workbook.Export(rows, "impact_report.xlsx"); err != nil {
			return err
		}
	}

	stats := snapshot.Stats()
	logger.Info("Processing complete",
		slog.Int("counties", stats.Counties),
		slog.Int("rows_exported", len(rows)),
		slog.Int("first_year", stats.FirstYear),
		slog.Int("last_year", stats.LastYear),
		slog.Duration("elapsed", time.Since(start)))
	for _, source := range stats.Sources {
		logger.Info("Source summary",
			slog.String("source", source.Source),
			slog.Int("rows_parsed", source.RowsParsed),
			slog.Int("rows_kept", source.RowsKept),
			slog.Int("rows_dropped", source.RowsDropped))
	}

	return nil
}

// loadSnapshot resolves and parses the four sources, then joins them.
func loadSnapshot(dataDir string, cfg *config.Config, logger *slog.Logger) (*dataset.Snapshot, error) {
	discovery := files.NewDiscovery(dataDir)

	incidentsPath, err := discovery.ResolveSource(cfg.Dataset.IncidentsFile, "*incidents*.csv")
	if err != nil {
		return nil, err
	}
	countsPath, err := discovery.ResolveSource(cfg.Dataset.IncidentCountsFile, "*counts*.csv")
	if err != nil {
		return nil, err
	}
	closuresPath, err := discovery.ResolveSource(cfg.Dataset.ClosureDaysFile, "*closure*.csv")
	if err != nil {
		return nil, err
	}
	enrollmentPath, err := discovery.ResolveSource(cfg.Dataset.EnrollmentFile, "*.xlsx")
	if err != nil {
		return nil, err
	}

	var src dataset.Sources
	var stats [4]domain.SourceStats

	if src.Incidents, stats[0], err = dataset.LoadIncidents(incidentsPath, logger); err != nil {
		return nil, err
	}
	if src.IncidentCounts, stats[1], err = dataset.LoadIncidentCounts(countsPath, logger); err != nil {
		return nil, err
	}
	filter := dataset.NewCauseFilter(cfg.Dataset.CauseKeywords)
	if src.Closures, stats[2], err = dataset.LoadClosures(closuresPath, filter, logger); err != nil {
		return nil, err
	}
	if src.Enrollment, stats[3], err = dataset.LoadEnrollment(enrollmentPath, logger); err != nil {
		return nil, err
	}
	src.Stats = stats[:]

	return dataset.Build(src, time.Now()), nil
}
