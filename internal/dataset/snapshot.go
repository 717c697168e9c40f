package dataset

import (
	"fmt"

	apperrors "firedays/internal/errors"
	"firedays/pkg/contracts/domain"
)

// Snapshot is the immutable result of one load. All accessors return copies
// or read-only views; the service layer swaps whole snapshots on reload and
// handlers only ever read.
type Snapshot struct {
	rows      []domain.CountyYearImpact
	byCounty  map[string][]domain.CountyYearImpact
	counties  []string
	incidents map[string][]domain.Incident
	stats     domain.SnapshotStats
}

// Empty returns a valid snapshot with no data. The server starts with one
// when the data directory is still being populated.
func Empty() *Snapshot {
	return &Snapshot{
		byCounty:  make(map[string][]domain.CountyYearImpact),
		incidents: make(map[string][]domain.Incident),
	}
}

// Counties returns the sorted county list.
func (s *Snapshot) Counties() []string {
	out := make([]string, len(s.counties))
	copy(out, s.counties)
	return out
}

// HasCounty reports whether the county appears in the joined dataset. The
// name must already be normalized.
func (s *Snapshot) HasCounty(county string) bool {
	_, ok := s.byCounty[county]
	return ok
}

// CountySeries returns the county's impact rows, optionally restricted to
// [from, to]. A zero bound means unbounded on that side.
func (s *Snapshot) CountySeries(county string, from, to int) ([]domain.CountyYearImpact, error) {
	if from != 0 && to != 0 && from > to {
		return nil, fmt.Errorf("from %d > to %d: %w", from, to, apperrors.ErrInvalidYearRange)
	}

	series, ok := s.byCounty[county]
	if !ok {
		return nil, fmt.Errorf("county %q: %w", county, apperrors.ErrCountyNotFound)
	}

	out := make([]domain.CountyYearImpact, 0, len(series))
	for _, row := range series {
		if from != 0 && row.Year < from {
			continue
		}
		if to != 0 && row.Year > to {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// TopIncidents returns the county's n largest incidents by acres burned.
// Counties known only from the raw incident file (not the joined dataset)
// still resolve here so the incident list works for them too.
func (s *Snapshot) TopIncidents(county string, n int) ([]domain.Incident, error) {
	list, ok := s.incidents[county]
	if !ok {
		if !s.HasCounty(county) {
			return nil, fmt.Errorf("county %q: %w", county, apperrors.ErrCountyNotFound)
		}
		return []domain.Incident{}, nil
	}
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	out := make([]domain.Incident, n)
	copy(out, list[:n])
	return out, nil
}

// Statewide rolls the per-county rows up into one series across all
// counties. The per-student ratio is recomputed from the sums rather than
// averaged, so large counties weigh more.
func (s *Snapshot) Statewide() []domain.CountyYearImpact {
	if len(s.rows) == 0 {
		return []domain.CountyYearImpact{}
	}

	byYear := make(map[int]*domain.CountyYearImpact)
	for _, row := range s.rows {
		agg, ok := byYear[row.Year]
		if !ok {
			agg = &domain.CountyYearImpact{County: "all", Year: row.Year}
			byYear[row.Year] = agg
		}
		agg.Incidents += row.Incidents
		agg.AcresBurned += row.AcresBurned
		agg.ClosureDays += row.ClosureDays
		agg.Enrollment += row.Enrollment
		agg.StudentDaysLost += row.StudentDaysLost
	}

	out := make([]domain.CountyYearImpact, 0, len(byYear))
	for year := s.stats.FirstYear; year <= s.stats.LastYear; year++ {
		agg, ok := byYear[year]
		if !ok {
			continue
		}
		if agg.Enrollment > 0 {
			agg.DaysLostPerStudent = agg.StudentDaysLost / float64(agg.Enrollment)
		}
		out = append(out, *agg)
	}
	return out
}

// Rows returns every impact row, ordered by county then year.
func (s *Snapshot) Rows() []domain.CountyYearImpact {
	out := make([]domain.CountyYearImpact, len(s.rows))
	copy(out, s.rows)
	return out
}

// Stats returns the load statistics.
func (s *Snapshot) Stats() domain.SnapshotStats {
	return s.stats
}
