// Package exporter writes the wildfire impact dataset to report files.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// ImpactExporter: Writes the combined county×year impact CSV, per-county
// CSV files, and the county summary (totals plus worst year).
//
// WorkbookExporter: Writes the same dataset as one XLSX workbook with an
// Impact sheet and a Counties summary sheet.
//
// Example usage:
//
//	impact := exporter.NewImpactExporter(paths)
//	err := impact.ExportCombined(snapshot.Rows(), paths.CombinedImpactCSV)
//
//	workbook := exporter.NewWorkbookExporter(paths)
//	err = workbook.Export(snapshot.Rows(), paths.ImpactWorkbook)
package exporter
