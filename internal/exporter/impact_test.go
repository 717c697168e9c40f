package exporter

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"firedays/pkg/contracts/domain"
)

func impactRows() []domain.CountyYearImpact {
	return []domain.CountyYearImpact{
		{County: "sonoma", Year: 2019, Incidents: 3, AcresBurned: 77758, ClosureDays: 5, Enrollment: 69500, StudentDaysLost: 347500, DaysLostPerStudent: 5},
		{County: "butte", Year: 2019, Enrollment: 29500},
		{County: "butte", Year: 2018, Incidents: 9, AcresBurned: 153336, ClosureDays: 16, Enrollment: 31000, StudentDaysLost: 496000, DaysLostPerStudent: 16},
	}
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(data), "\xEF\xBB\xBF")
	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestImpactExporter_ExportCombined(t *testing.T) {
	paths := testPaths(t)
	e := NewImpactExporter(paths)

	require.NoError(t, e.ExportCombined(impactRows(), paths.CombinedImpactCSV))

	records := readCSVFile(t, paths.CombinedImpactCSV)
	require.Len(t, records, 4)
	assert.Equal(t, impactHeaders, records[0])

	// Sorted by county then year regardless of input order.
	assert.Equal(t, []string{"butte", "2018"}, records[1][:2])
	assert.Equal(t, []string{"butte", "2019"}, records[2][:2])
	assert.Equal(t, []string{"sonoma", "2019"}, records[3][:2])

	// Ratio column keeps four decimals.
	assert.Equal(t, "16.0000", records[1][7])

	// Combined file carries no BOM.
	raw, err := os.ReadFile(paths.CombinedImpactCSV)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(raw), "\xEF\xBB\xBF"))
}

func TestImpactExporter_ExportPerCounty(t *testing.T) {
	paths := testPaths(t)
	e := NewImpactExporter(paths)

	require.NoError(t, e.ExportPerCounty(impactRows(), "counties"))

	butte := readCSVFile(t, paths.GetReportPath("counties/impact_butte.csv"))
	require.Len(t, butte, 3)
	assert.Equal(t, "2018", butte[1][1])
	assert.Equal(t, "2019", butte[2][1])

	sonoma := readCSVFile(t, paths.GetReportPath("counties/impact_sonoma.csv"))
	require.Len(t, sonoma, 2)
}

func TestImpactExporter_PerCountyFileNaming(t *testing.T) {
	paths := testPaths(t)
	e := NewImpactExporter(paths)

	rows := []domain.CountyYearImpact{{County: "los angeles", Year: 2018}}
	require.NoError(t, e.ExportPerCounty(rows, "counties"))

	_, err := os.Stat(paths.GetReportPath("counties/impact_los_angeles.csv"))
	assert.NoError(t, err)
}

func TestImpactExporter_ExportCountySummary(t *testing.T) {
	paths := testPaths(t)
	e := NewImpactExporter(paths)

	require.NoError(t, e.ExportCountySummary(impactRows(), paths.CountySummaryCSV))

	records := readCSVFile(t, paths.CountySummaryCSV)
	require.Len(t, records, 3)

	// butte: two rows, totals summed, worst year 2018.
	assert.Equal(t, "butte", records[1][0])
	assert.Equal(t, "2", records[1][1])
	assert.Equal(t, "9", records[1][2])
	assert.Equal(t, "2018", records[1][6])
}

func TestWorkbookExporter_Export(t *testing.T) {
	paths := testPaths(t)
	e := NewWorkbookExporter(paths)

	require.NoError(t, e.Export(impactRows(), paths.ImpactWorkbook))

	f, err := excelize.OpenFile(paths.ImpactWorkbook)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Impact", "Counties"}, f.GetSheetList())

	impact, err := f.GetRows("Impact")
	require.NoError(t, err)
	require.Len(t, impact, 4)
	assert.Equal(t, "County", impact[0][0])
	assert.Equal(t, "butte", impact[1][0])

	counties, err := f.GetRows("Counties")
	require.NoError(t, err)
	require.Len(t, counties, 3)
	assert.Equal(t, "butte", counties[1][0])
	assert.Equal(t, "sonoma", counties[2][0])
}

func TestWorkbookExporter_EmptyRows(t *testing.T) {
	paths := testPaths(t)
	e := NewWorkbookExporter(paths)

	require.NoError(t, e.Export(nil, paths.ImpactWorkbook))

	f, err := excelize.OpenFile(paths.ImpactWorkbook)
	require.NoError(t, err)
	defer f.Close()

	impact, err := f.GetRows("Impact")
	require.NoError(t, err)
	assert.Len(t, impact, 1) // header only
}
