package domain

import (
	"sort"
	"time"
)

// CountyYearImpact is the Single Source of Truth for one county×year impact
// rollup. Every consumer — the dashboard API, the exporters, the frontend
// table — reads this shape. Rows are derived, never stored: the builder
// recomputes them from the four sources on every load.
//
// Derivation:
//   - ClosureDays and Enrollment come from the inner join of the closure and
//     enrollment sources on (county, year).
//   - Incidents and AcresBurned are left-joined with zero-fill.
//   - StudentDaysLost = ClosureDays × Enrollment.
//   - DaysLostPerStudent = StudentDaysLost / Enrollment, 0 when Enrollment
//     is 0 (zero-filled gap years).
type CountyYearImpact struct {
	County             string  `json:"county" csv:"County" validate:"required"`
	Year               int     `json:"year" csv:"Year" validate:"min=1900"`
	Incidents          int     `json:"incidents" csv:"Incidents" validate:"min=0"`
	AcresBurned        float64 `json:"acres_burned" csv:"AcresBurned" validate:"min=0"`
	ClosureDays        float64 `json:"closure_days" csv:"ClosureDays" validate:"min=0"`
	Enrollment         int     `json:"enrollment" csv:"Enrollment" validate:"min=0"`
	StudentDaysLost    float64 `json:"student_days_lost" csv:"StudentDaysLost" validate:"min=0"`
	DaysLostPerStudent float64 `json:"days_lost_per_student" csv:"DaysLostPerStudent" validate:"min=0"`
}

// ImpactSeries holds the per-year vectors the chart consumes. All slices are
// parallel to Years.
type ImpactSeries struct {
	Years              []int     `json:"years"`
	Incidents          []int     `json:"incidents"`
	AcresBurned        []float64 `json:"acres_burned"`
	ClosureDays        []float64 `json:"closure_days"`
	Enrollment         []int     `json:"enrollment"`
	StudentDaysLost    []float64 `json:"student_days_lost"`
	DaysLostPerStudent []float64 `json:"days_lost_per_student"`
}

// ImpactTotals summarizes a set of impact rows for the table footer.
// WorstYear is the year with the highest student-days lost; zero when no row
// has any impact.
type ImpactTotals struct {
	Incidents       int     `json:"incidents"`
	AcresBurned     float64 `json:"acres_burned"`
	ClosureDays     float64 `json:"closure_days"`
	StudentDaysLost float64 `json:"student_days_lost"`
	WorstYear       int     `json:"worst_year,omitempty"`
}

// CountyImpact is the full dashboard payload for one county (or the
// statewide rollup when County is "all").
type CountyImpact struct {
	County string             `json:"county"`
	Series ImpactSeries       `json:"series"`
	Rows   []CountyYearImpact `json:"rows"`
	Totals ImpactTotals       `json:"totals"`
}

// SourceStats describes one source file's parse outcome. RowsDropped counts
// rows discarded by coercion failures or the cause filter, not file errors.
type SourceStats struct {
	Source      string `json:"source"`
	Path        string `json:"path,omitempty"`
	RowsParsed  int    `json:"rows_parsed"`
	RowsKept    int    `json:"rows_kept"`
	RowsDropped int    `json:"rows_dropped"`
}

// SnapshotStats describes one completed load.
type SnapshotStats struct {
	Counties  int           `json:"counties"`
	Rows      int           `json:"rows"`
	FirstYear int           `json:"first_year"`
	LastYear  int           `json:"last_year"`
	LoadedAt  time.Time     `json:"loaded_at"`
	Duration  time.Duration `json:"-"`
	Sources   []SourceStats `json:"sources"`
}

// SeriesFrom builds chart vectors from impact rows. Rows are sorted by year
// first so the vectors are always chronological regardless of input order.
func SeriesFrom(rows []CountyYearImpact) ImpactSeries {
	sorted := make([]CountyYearImpact, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	s := ImpactSeries{
		Years:              make([]int, 0, len(sorted)),
		Incidents:          make([]int, 0, len(sorted)),
		AcresBurned:        make([]float64, 0, len(sorted)),
		ClosureDays:        make([]float64, 0, len(sorted)),
		Enrollment:         make([]int, 0, len(sorted)),
		StudentDaysLost:    make([]float64, 0, len(sorted)),
		DaysLostPerStudent: make([]float64, 0, len(sorted)),
	}
	for _, row := range sorted {
		s.Years = append(s.Years, row.Year)
		s.Incidents = append(s.Incidents, row.Incidents)
		s.AcresBurned = append(s.AcresBurned, row.AcresBurned)
		s.ClosureDays = append(s.ClosureDays, row.ClosureDays)
		s.Enrollment = append(s.Enrollment, row.Enrollment)
		s.StudentDaysLost = append(s.StudentDaysLost, row.StudentDaysLost)
		s.DaysLostPerStudent = append(s.DaysLostPerStudent, row.DaysLostPerStudent)
	}
	return s
}

// TotalsFor sums impact rows and picks the worst year by student-days lost.
func TotalsFor(rows []CountyYearImpact) ImpactTotals {
	var totals ImpactTotals
	worst := 0.0
	for _, row := range rows {
		totals.Incidents += row.Incidents
		totals.AcresBurned += row.AcresBurned
		totals.ClosureDays += row.ClosureDays
		totals.StudentDaysLost += row.StudentDaysLost
		if row.StudentDaysLost > worst {
			worst = row.StudentDaysLost
			totals.WorstYear = row.Year
		}
	}
	return totals
}
