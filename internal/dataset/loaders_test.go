package dataset

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadIncidents(t *testing.T) {
	path := writeTempCSV(t, "incidents.csv", `Name,Counties,ArchiveYear,AcresBurned,Started
Camp Fire,Butte,2018,"153,336",2018-11-08
Thomas Fire, VENTURA ,2017,281893,2017-12-04
Kincade Fire,Sonoma,,77758,2019-10-23
No Year,Napa,,,
,,2018,100,
`)

	incidents, stats, err := LoadIncidents(path, testLogger)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.RowsParsed)
	assert.Equal(t, 3, stats.RowsKept)
	assert.Equal(t, 2, stats.RowsDropped)
	require.Len(t, incidents, 3)

	assert.Equal(t, "butte", incidents[0].County)
	assert.Equal(t, 2018, incidents[0].Year)
	assert.Equal(t, 153336.0, incidents[0].AcresBurned)

	// County normalization
	assert.Equal(t, "ventura", incidents[1].County)

	// ArchiveYear missing: year falls back to Started
	assert.Equal(t, 2019, incidents[2].Year)
}

func TestLoadIncidents_ColumnOrderIndependent(t *testing.T) {
	path := writeTempCSV(t, "incidents.csv", `AcresBurned,Name,Started,Counties,ArchiveYear
500,Small Fire,2020-08-01,Yolo,2020
`)

	incidents, _, err := LoadIncidents(path, testLogger)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "yolo", incidents[0].County)
	assert.Equal(t, 500.0, incidents[0].AcresBurned)
}

func TestLoadIncidents_MissingRequiredColumn(t *testing.T) {
	path := writeTempCSV(t, "incidents.csv", `Name,Year
Camp Fire,2018
`)

	_, _, err := LoadIncidents(path, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counties")
}

func TestLoadIncidents_FileMissing(t *testing.T) {
	_, _, err := LoadIncidents(filepath.Join(t.TempDir(), "nope.csv"), testLogger)
	assert.Error(t, err)
}

func TestLoadIncidentCounts(t *testing.T) {
	path := writeTempCSV(t, "counts.csv", `county,year,incidents
Butte,2018,9
butte,2017,4
Shasta,2018,six
Shasta,,3
`)

	counts, stats, err := LoadIncidentCounts(path, testLogger)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.RowsKept)
	assert.Equal(t, 2, stats.RowsDropped)
	require.Len(t, counts, 2)
	assert.Equal(t, "butte", counts[0].County)
	assert.Equal(t, 9, counts[0].Incidents)
}

func TestLoadClosures(t *testing.T) {
	filter := NewCauseFilter([]string{"fire", "wildfire", "smoke"})
	path := writeTempCSV(t, "closures.csv", `county,year,days,reason
Butte,2018,14,Camp Fire
Butte,2018,2,Wildfire smoke
Shasta,2018,3,Flooding
Sonoma,2019,bad,Kincade Fire
Sonoma,2019,5,PSPS wildfire risk
`)

	closures, stats, err := LoadClosures(path, filter, testLogger)
	require.NoError(t, err)

	// Flooding fails the filter, the unparseable days row drops.
	assert.Equal(t, 5, stats.RowsParsed)
	assert.Equal(t, 3, stats.RowsKept)
	assert.Equal(t, 2, stats.RowsDropped)
	require.Len(t, closures, 3)

	assert.Equal(t, "butte", closures[0].County)
	assert.Equal(t, 14.0, closures[0].Days)
	assert.Equal(t, "camp fire", closures[0].Reason)
}

func TestLoadClosures_HalfDays(t *testing.T) {
	filter := NewCauseFilter([]string{"fire"})
	path := writeTempCSV(t, "closures.csv", `county,year,days,reason
Napa,2017,0.5,fire drill closure
`)

	closures, _, err := LoadClosures(path, filter, testLogger)
	require.NoError(t, err)
	require.Len(t, closures, 1)
	assert.Equal(t, 0.5, closures[0].Days)
}

func writeEnrollmentWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheet)
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}
	path := filepath.Join(t.TempDir(), "enrollment.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadEnrollment(t *testing.T) {
	path := writeEnrollmentWorkbook(t, "Enrollment", [][]interface{}{
		{"County", "2016-17", "2017-18", "2018-19"},
		{"Butte", 31000, 30800, 29500},
		{"VENTURA ", 139000, "", 138000},
		{"", 1, 2, 3},
	})

	records, stats, err := LoadEnrollment(path, testLogger)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.RowsParsed)
	assert.Equal(t, 2, stats.RowsKept)
	assert.Equal(t, 1, stats.RowsDropped)

	// Butte has all three years, Ventura skips the blank 2017 cell.
	require.Len(t, records, 5)

	byKey := make(map[string]int)
	for _, r := range records {
		byKey[r.County+"/"+string(rune('0'+r.Year-2016))] = r.Enrollment
	}
	assert.Equal(t, 31000, byKey["butte/0"])
	assert.Equal(t, 29500, byKey["butte/2"])
	assert.Equal(t, 139000, byKey["ventura/0"])
	_, has2017 := byKey["ventura/1"]
	assert.False(t, has2017)
}

func TestLoadEnrollment_PlainYearHeaders(t *testing.T) {
	path := writeEnrollmentWorkbook(t, "Sheet1", [][]interface{}{
		{"County Name", "2018", "2019"},
		{"Napa", "11,500", 11400},
	})

	records, _, err := LoadEnrollment(path, testLogger)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 11500, records[0].Enrollment)
	assert.Equal(t, 2018, records[0].Year)
}

func TestLoadEnrollment_NoYearColumns(t *testing.T) {
	path := writeEnrollmentWorkbook(t, "Sheet1", [][]interface{}{
		{"County", "Total", "Notes"},
		{"Napa", 11500, "x"},
	})

	_, _, err := LoadEnrollment(path, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no year columns")
}

func TestLoadEnrollment_PrefersEnrollmentSheet(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Notes")
	_, err := f.NewSheet("Enrollment")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "nothing here"))
	require.NoError(t, f.SetCellValue("Enrollment", "A1", "County"))
	require.NoError(t, f.SetCellValue("Enrollment", "B1", "2018"))
	require.NoError(t, f.SetCellValue("Enrollment", "A2", "Butte"))
	require.NoError(t, f.SetCellValue("Enrollment", "B2", 31000))

	path := filepath.Join(t.TempDir(), "enrollment.xlsx")
	require.NoError(t, f.SaveAs(path))

	records, _, err := LoadEnrollment(path, testLogger)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "butte", records[0].County)
}
