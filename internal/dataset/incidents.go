package dataset

import (
	"log/slog"
	"strings"
	"time"

	"firedays/pkg/contracts/domain"
)

// LoadIncidents reads the wildfire incident records. A row needs a county
// and a year; the year comes from ArchiveYear, falling back to the year of
// the Started timestamp. Acres are optional and zero when unparseable.
func LoadIncidents(path string, logger *slog.Logger) ([]domain.Incident, domain.SourceStats, error) {
	stats := domain.SourceStats{Source: "incidents", Path: path}

	header, rows, err := readCSV(path)
	if err != nil {
		return nil, stats, err
	}
	if err := header.has("counties"); err != nil {
		return nil, stats, err
	}

	incidents := make([]domain.Incident, 0, len(rows))
	for i, row := range rows {
		stats.RowsParsed++

		county := NormalizeCounty(header.get(row, "counties"))
		if county == "" {
			stats.RowsDropped++
			logger.Debug("incident row dropped: empty county", slog.Int("row", i+2))
			continue
		}

		year, started := incidentYear(header, row)
		if year == 0 {
			stats.RowsDropped++
			logger.Debug("incident row dropped: no usable year",
				slog.Int("row", i+2),
				slog.String("archive_year", header.get(row, "archiveyear")),
				slog.String("started", header.get(row, "started")))
			continue
		}

		acres, _ := parseFloat(header.get(row, "acresburned"))

		incidents = append(incidents, domain.Incident{
			Name:        strings.TrimSpace(header.get(row, "name")),
			County:      county,
			Year:        year,
			AcresBurned: acres,
			Started:     started,
		})
		stats.RowsKept++
	}

	logger.Info("incidents loaded",
		slog.String("path", path),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("rows_dropped", stats.RowsDropped))

	return incidents, stats, nil
}

// incidentYear resolves the year for one incident row: ArchiveYear when it
// parses, otherwise the year of the Started timestamp.
func incidentYear(header headerMap, row []string) (int, time.Time) {
	started := parseStarted(header.get(row, "started"))

	if year, ok := parseYear(header.get(row, "archiveyear")); ok {
		return year, started
	}
	if !started.IsZero() {
		return started.Year(), started
	}
	return 0, started
}

// parseStarted accepts the timestamp layouts seen in incident exports.
func parseStarted(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
		"1/2/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
