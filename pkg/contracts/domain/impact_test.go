package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeriesFrom(t *testing.T) {
	tests := []struct {
		name      string
		rows      []CountyYearImpact
		wantYears []int
		wantDays  []float64
	}{
		{
			name:      "empty rows",
			rows:      nil,
			wantYears: []int{},
			wantDays:  []float64{},
		},
		{
			name: "unsorted input becomes chronological",
			rows: []CountyYearImpact{
				{County: "butte", Year: 2018, ClosureDays: 12},
				{County: "butte", Year: 2016, ClosureDays: 0},
				{County: "butte", Year: 2017, ClosureDays: 3},
			},
			wantYears: []int{2016, 2017, 2018},
			wantDays:  []float64{0, 3, 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SeriesFrom(tt.rows)
			assert.Equal(t, tt.wantYears, s.Years)
			assert.Equal(t, tt.wantDays, s.ClosureDays)
			assert.Len(t, s.Incidents, len(tt.rows))
			assert.Len(t, s.DaysLostPerStudent, len(tt.rows))
		})
	}
}

func TestSeriesFromDoesNotMutateInput(t *testing.T) {
	rows := []CountyYearImpact{
		{Year: 2020}, {Year: 2015}, {Year: 2018},
	}
	SeriesFrom(rows)
	assert.Equal(t, 2020, rows[0].Year)
	assert.Equal(t, 2015, rows[1].Year)
}

func TestTotalsFor(t *testing.T) {
	rows := []CountyYearImpact{
		{Year: 2017, Incidents: 4, AcresBurned: 1200, ClosureDays: 2, StudentDaysLost: 40000},
		{Year: 2018, Incidents: 9, AcresBurned: 153336, ClosureDays: 14, StudentDaysLost: 420000},
		{Year: 2019, Incidents: 1, AcresBurned: 77758, ClosureDays: 5, StudentDaysLost: 150000},
	}

	totals := TotalsFor(rows)
	assert.Equal(t, 14, totals.Incidents)
	assert.InDelta(t, 232294, totals.AcresBurned, 0.001)
	assert.InDelta(t, 21, totals.ClosureDays, 0.001)
	assert.InDelta(t, 610000, totals.StudentDaysLost, 0.001)
	assert.Equal(t, 2018, totals.WorstYear)
}

func TestTotalsForNoImpact(t *testing.T) {
	totals := TotalsFor([]CountyYearImpact{{Year: 2016}, {Year: 2017}})
	assert.Equal(t, 0, totals.WorstYear)
	assert.Zero(t, totals.StudentDaysLost)
}
