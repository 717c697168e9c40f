package exporter

import (
	"fmt"
	"sort"
	"strings"

	"firedays/internal/config"
	"firedays/pkg/contracts/domain"
)

// ImpactExporter writes county×year impact reports as CSV
type ImpactExporter struct {
	csvWriter *CSVWriter
}

// NewImpactExporter creates a new impact report exporter
func NewImpactExporter(paths *config.Paths) *ImpactExporter {
	return &ImpactExporter{
		csvWriter: NewCSVWriter(paths),
	}
}

// impactHeaders is the column layout every impact CSV shares.
var impactHeaders = []string{
	"County", "Year", "Incidents", "AcresBurned", "ClosureDays",
	"Enrollment", "StudentDaysLost", "DaysLostPerStudent",
}

// ExportCombined writes every impact row into one CSV at outputPath. No BOM:
// the combined file feeds downstream tooling, not Excel.
func (e *ImpactExporter) ExportCombined(rows []domain.CountyYearImpact, outputPath string) error {
	sorted := sortRows(rows)

	records := make([][]string, 0, len(sorted))
	for _, row := range sorted {
		records = append(records, impactRow(row))
	}

	if err := e.csvWriter.WriteCSV(outputPath, WriteOptions{
		Headers: impactHeaders,
		Records: records,
	}); err != nil {
		return fmt.Errorf("failed to write combined impact report: %w", err)
	}
	return nil
}

// ExportPerCounty writes one CSV per county into outputDir, named
// impact_<county>.csv with spaces flattened to underscores.
func (e *ImpactExporter) ExportPerCounty(rows []domain.CountyYearImpact, outputDir string) error {
	byCounty := make(map[string][]domain.CountyYearImpact)
	for _, row := range rows {
		byCounty[row.County] = append(byCounty[row.County], row)
	}

	counties := make([]string, 0, len(byCounty))
	for county := range byCounty {
		counties = append(counties, county)
	}
	sort.Strings(counties)

	for _, county := range counties {
		countyRows := sortRows(byCounty[county])

		records := make([][]string, 0, len(countyRows))
		for _, row := range countyRows {
			records = append(records, impactRow(row))
		}

		path := fmt.Sprintf("%s/impact_%s.csv", outputDir, countyFileName(county))
		if err := e.csvWriter.WriteSimpleCSV(path, impactHeaders, records); err != nil {
			return fmt.Errorf("failed to write impact report for %s: %w", county, err)
		}
	}

	return nil
}

// ExportCountySummary writes one row per county with totals and the worst
// year by student-days lost.
func (e *ImpactExporter) ExportCountySummary(rows []domain.CountyYearImpact, outputPath string) error {
	byCounty := make(map[string][]domain.CountyYearImpact)
	for _, row := range rows {
		byCounty[row.County] = append(byCounty[row.County], row)
	}

	counties := make([]string, 0, len(byCounty))
	for county := range byCounty {
		counties = append(counties, county)
	}
	sort.Strings(counties)

	headers := []string{
		"County", "Years", "Incidents", "AcresBurned", "ClosureDays",
		"StudentDaysLost", "WorstYear",
	}

	records := make([][]string, 0, len(counties))
	for _, county := range counties {
		totals := domain.TotalsFor(byCounty[county])
		records = append(records, []string{
			county,
			formatInt(len(byCounty[county])),
			formatInt(totals.Incidents),
			formatFloat(totals.AcresBurned),
			formatFloat(totals.ClosureDays),
			formatFloat(totals.StudentDaysLost),
			formatInt(totals.WorstYear),
		})
	}

	if err := e.csvWriter.WriteSimpleCSV(outputPath, headers, records); err != nil {
		return fmt.Errorf("failed to write county summary: %w", err)
	}
	return nil
}

func impactRow(row domain.CountyYearImpact) []string {
	return []string{
		row.County,
		formatInt(row.Year),
		formatInt(row.Incidents),
		formatFloat(row.AcresBurned),
		formatFloat(row.ClosureDays),
		formatInt(row.Enrollment),
		formatFloat(row.StudentDaysLost),
		formatRatio(row.DaysLostPerStudent),
	}
}

func sortRows(rows []domain.CountyYearImpact) []domain.CountyYearImpact {
	sorted := make([]domain.CountyYearImpact, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].County != sorted[j].County {
			return sorted[i].County < sorted[j].County
		}
		return sorted[i].Year < sorted[j].Year
	})
	return sorted
}

func countyFileName(county string) string {
	return strings.ReplaceAll(strings.TrimSpace(county), " ", "_")
}
