package dataset

import (
	"sort"
	"time"

	"firedays/pkg/contracts/domain"
)

// Sources holds the typed output of the four loaders plus their per-file
// statistics, ready for Build.
type Sources struct {
	Incidents      []domain.Incident
	IncidentCounts []domain.IncidentCount
	Closures       []domain.ClosureDay
	Enrollment     []domain.EnrollmentRecord
	Stats          []domain.SourceStats
}

type countyYear struct {
	county string
	year   int
}

// Build joins the sources into an immutable Snapshot.
//
// Join semantics: closures inner-join enrollment on (county, year) — a
// county with closures but no enrollment contributes nothing. Incident
// counts and acres left-join with zero-fill. Duplicate (county, year) rows
// in any source are summed before joining. Finally every county's series is
// zero-filled across the global [minYear, maxYear] span so the chart never
// has holes.
func Build(src Sources, loadedAt time.Time) *Snapshot {
	closureDays := make(map[countyYear]float64)
	for _, c := range src.Closures {
		closureDays[countyYear{c.County, c.Year}] += c.Days
	}

	enrollment := make(map[countyYear]int)
	for _, e := range src.Enrollment {
		enrollment[countyYear{e.County, e.Year}] += e.Enrollment
	}

	counts := make(map[countyYear]int)
	for _, c := range src.IncidentCounts {
		counts[countyYear{c.County, c.Year}] += c.Incidents
	}

	acres := make(map[countyYear]float64)
	incidentsByCounty := make(map[string][]domain.Incident)
	for _, inc := range src.Incidents {
		acres[countyYear{inc.County, inc.Year}] += inc.AcresBurned
		incidentsByCounty[inc.County] = append(incidentsByCounty[inc.County], inc)
	}

	// Inner join decides which (county, year) cells carry real impact and
	// which counties appear at all.
	joined := make(map[countyYear]bool)
	countySet := make(map[string]bool)
	minYear, maxYear := 0, 0
	for k := range closureDays {
		if _, ok := enrollment[k]; !ok {
			continue
		}
		joined[k] = true
		countySet[k.county] = true
		if minYear == 0 || k.year < minYear {
			minYear = k.year
		}
		if k.year > maxYear {
			maxYear = k.year
		}
	}

	counties := make([]string, 0, len(countySet))
	for county := range countySet {
		counties = append(counties, county)
	}
	sort.Strings(counties)

	rows := make([]domain.CountyYearImpact, 0, len(counties)*(maxYear-minYear+1))
	byCounty := make(map[string][]domain.CountyYearImpact, len(counties))
	for _, county := range counties {
		series := make([]domain.CountyYearImpact, 0, maxYear-minYear+1)
		for year := minYear; year <= maxYear; year++ {
			k := countyYear{county, year}
			row := domain.CountyYearImpact{
				County:    county,
				Year:      year,
				Incidents: counts[k],
				// Acres come from raw incident records, not the
				// counts file, so both stay visible even when the
				// two sources disagree.
				AcresBurned: acres[k],
				Enrollment:  enrollment[k],
			}
			if joined[k] {
				row.ClosureDays = closureDays[k]
				row.StudentDaysLost = row.ClosureDays * float64(row.Enrollment)
				if row.Enrollment > 0 {
					row.DaysLostPerStudent = row.StudentDaysLost / float64(row.Enrollment)
				}
			}
			series = append(series, row)
		}
		byCounty[county] = series
		rows = append(rows, series...)
	}

	// Incidents sorted by size once so TopIncidents is a slice cut.
	for county := range incidentsByCounty {
		list := incidentsByCounty[county]
		sort.Slice(list, func(i, j int) bool {
			if list[i].AcresBurned != list[j].AcresBurned {
				return list[i].AcresBurned > list[j].AcresBurned
			}
			return list[i].Name < list[j].Name
		})
	}

	return &Snapshot{
		rows:      rows,
		byCounty:  byCounty,
		counties:  counties,
		incidents: incidentsByCounty,
		stats: domain.SnapshotStats{
			Counties:  len(counties),
			Rows:      len(rows),
			FirstYear: minYear,
			LastYear:  maxYear,
			LoadedAt:  loadedAt,
			Sources:   src.Stats,
		},
	}
}
