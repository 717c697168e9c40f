package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"firedays/internal/config"
	"firedays/pkg/contracts/domain"
)

// WorkbookExporter writes the impact dataset as one XLSX workbook: an
// Impact sheet with every county×year row and a Counties sheet with
// per-county totals.
type WorkbookExporter struct {
	paths *config.Paths
}

// NewWorkbookExporter creates a new workbook exporter
func NewWorkbookExporter(paths *config.Paths) *WorkbookExporter {
	return &WorkbookExporter{paths: paths}
}

// Export writes the workbook to outputPath (resolved into the reports
// directory when relative).
func (e *WorkbookExporter) Export(rows []domain.CountyYearImpact, outputPath string) error {
	fullPath := outputPath
	if !filepath.IsAbs(fullPath) {
		fullPath = e.paths.GetReportPath(fullPath)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const impactSheet = "Impact"
	f.SetSheetName(f.GetSheetName(0), impactSheet)

	if err := writeSheetRow(f, impactSheet, 1, toCells(impactHeaders)); err != nil {
		return err
	}
	for i, row := range sortRows(rows) {
		cells := []interface{}{
			row.County, row.Year, row.Incidents, row.AcresBurned,
			row.ClosureDays, row.Enrollment, row.StudentDaysLost,
			row.DaysLostPerStudent,
		}
		if err := writeSheetRow(f, impactSheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := e.writeCountiesSheet(f, rows); err != nil {
		return err
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (e *WorkbookExporter) writeCountiesSheet(f *excelize.File, rows []domain.CountyYearImpact) error {
	const sheet = "Counties"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	byCounty := make(map[string][]domain.CountyYearImpact)
	for _, row := range rows {
		byCounty[row.County] = append(byCounty[row.County], row)
	}
	counties := make([]string, 0, len(byCounty))
	for county := range byCounty {
		counties = append(counties, county)
	}
	sort.Strings(counties)

	headers := []interface{}{
		"County", "Incidents", "AcresBurned", "ClosureDays",
		"StudentDaysLost", "WorstYear",
	}
	if err := writeSheetRow(f, sheet, 1, headers); err != nil {
		return err
	}

	for i, county := range counties {
		totals := domain.TotalsFor(byCounty[county])
		cells := []interface{}{
			county, totals.Incidents, totals.AcresBurned,
			totals.ClosureDays, totals.StudentDaysLost, totals.WorstYear,
		}
		if err := writeSheetRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	return nil
}

func writeSheetRow(f *excelize.File, sheet string, rowNum int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("bad coordinates for row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", rowNum, sheet, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
