package dataset

import (
	"log/slog"
	"strings"

	"firedays/pkg/contracts/domain"
)

// LoadIncidentCounts reads the per-county incident tallies. All three
// columns are required; a row with a non-numeric year or count drops.
func LoadIncidentCounts(path string, logger *slog.Logger) ([]domain.IncidentCount, domain.SourceStats, error) {
	stats := domain.SourceStats{Source: "incident_counts", Path: path}

	header, rows, err := readCSV(path)
	if err != nil {
		return nil, stats, err
	}
	if err := header.has("county", "year", "incidents"); err != nil {
		return nil, stats, err
	}

	counts := make([]domain.IncidentCount, 0, len(rows))
	for i, row := range rows {
		stats.RowsParsed++

		county := NormalizeCounty(header.get(row, "county"))
		year, yearOK := parseYear(header.get(row, "year"))
		n, nOK := parseInt(header.get(row, "incidents"))

		if county == "" || !yearOK || !nOK || n < 0 {
			stats.RowsDropped++
			logger.Debug("incident count row dropped",
				slog.Int("row", i+2),
				slog.String("county", header.get(row, "county")),
				slog.String("year", header.get(row, "year")),
				slog.String("incidents", header.get(row, "incidents")))
			continue
		}

		counts = append(counts, domain.IncidentCount{County: county, Year: year, Incidents: n})
		stats.RowsKept++
	}

	logger.Info("incident counts loaded",
		slog.String("path", path),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("rows_dropped", stats.RowsDropped))

	return counts, stats, nil
}

// LoadClosures reads the disaster-day records and keeps only closures whose
// reason matches the wildfire cause filter. Rows failing the filter count as
// dropped so the status endpoint can show how much the filter removed.
func LoadClosures(path string, filter *CauseFilter, logger *slog.Logger) ([]domain.ClosureDay, domain.SourceStats, error) {
	stats := domain.SourceStats{Source: "closure_days", Path: path}

	header, rows, err := readCSV(path)
	if err != nil {
		return nil, stats, err
	}
	if err := header.has("county", "year", "days", "reason"); err != nil {
		return nil, stats, err
	}

	closures := make([]domain.ClosureDay, 0, len(rows))
	for i, row := range rows {
		stats.RowsParsed++

		county := NormalizeCounty(header.get(row, "county"))
		year, yearOK := parseYear(header.get(row, "year"))
		days, daysOK := parseFloat(header.get(row, "days"))
		reason := strings.TrimSpace(header.get(row, "reason"))

		if county == "" || !yearOK || !daysOK || days < 0 {
			stats.RowsDropped++
			logger.Debug("closure row dropped",
				slog.Int("row", i+2),
				slog.String("county", header.get(row, "county")),
				slog.String("year", header.get(row, "year")),
				slog.String("days", header.get(row, "days")))
			continue
		}

		if !filter.Matches(reason) {
			stats.RowsDropped++
			logger.Debug("closure row filtered: cause not wildfire-related",
				slog.Int("row", i+2),
				slog.String("reason", reason))
			continue
		}

		closures = append(closures, domain.ClosureDay{
			County: county,
			Year:   year,
			Days:   days,
			Reason: strings.ToLower(reason),
		})
		stats.RowsKept++
	}

	logger.Info("closures loaded",
		slog.String("path", path),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("rows_dropped", stats.RowsDropped))

	return closures, stats, nil
}
