package dataset

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"firedays/pkg/contracts/domain"
)

// preferredSheet is used when the workbook has a sheet by this name;
// otherwise the first sheet wins.
const preferredSheet = "Enrollment"

// LoadEnrollment reads the wide-format enrollment workbook and melts it to
// long (county, year, enrollment) records. The first column of the header
// row holds county names; every later header that parses as a year ("2016"
// or "2016-17") becomes a year column. Blank county rows and unparseable
// cells are skipped.
func LoadEnrollment(path string, logger *slog.Logger) ([]domain.EnrollmentRecord, domain.SourceStats, error) {
	stats := domain.SourceStats{Source: "enrollment", Path: path}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheet := pickSheet(f)
	if sheet == "" {
		return nil, stats, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, stats, fmt.Errorf("%s: sheet %q is empty", path, sheet)
	}

	// Map year columns off the header row. Column 0 is the county name;
	// anything after it that parses as a year participates in the melt.
	header := rows[0]
	yearCols := make(map[int]int)
	for j := 1; j < len(header); j++ {
		if year, ok := parseYear(header[j]); ok {
			yearCols[j] = year
		}
	}
	if len(yearCols) == 0 {
		return nil, stats, fmt.Errorf("%s: no year columns found in header of sheet %q", path, sheet)
	}

	records := make([]domain.EnrollmentRecord, 0, (len(rows)-1)*len(yearCols))
	for i, row := range rows[1:] {
		stats.RowsParsed++

		if len(row) == 0 {
			stats.RowsDropped++
			continue
		}
		county := NormalizeCounty(row[0])
		if county == "" {
			stats.RowsDropped++
			logger.Debug("enrollment row skipped: blank county", slog.Int("row", i+2))
			continue
		}

		kept := false
		for col, year := range yearCols {
			if col >= len(row) {
				continue
			}
			enrollment, ok := parseInt(row[col])
			if !ok || enrollment < 0 {
				if strings.TrimSpace(row[col]) != "" {
					logger.Debug("enrollment cell skipped",
						slog.String("county", county),
						slog.Int("year", year),
						slog.String("value", row[col]))
				}
				continue
			}
			records = append(records, domain.EnrollmentRecord{
				County:     county,
				Year:       year,
				Enrollment: enrollment,
			})
			kept = true
		}
		if kept {
			stats.RowsKept++
		} else {
			stats.RowsDropped++
		}
	}

	logger.Info("enrollment loaded",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("year_columns", len(yearCols)),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("records", len(records)))

	return records, stats, nil
}

func pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), preferredSheet) {
			return name
		}
	}
	if len(sheets) > 0 {
		return sheets[0]
	}
	return ""
}
