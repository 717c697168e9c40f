package domain

import "time"

// Incident is one wildfire incident record as read from the incidents source.
// County is normalized (trimmed, lowercased) by the loader before the record
// is handed to anything else.
type Incident struct {
	Name        string    `json:"name" csv:"Name"`
	County      string    `json:"county" csv:"County" validate:"required"`
	Year        int       `json:"year" csv:"Year" validate:"min=1900"`
	AcresBurned float64   `json:"acres_burned" csv:"AcresBurned" validate:"min=0"`
	Started     time.Time `json:"started,omitempty" csv:"Started"`
}

// IncidentCount is one per-county, per-year incident tally from the counts
// source. Counts are kept separate from raw incidents because the two files
// are externally owned and do not always agree.
type IncidentCount struct {
	County    string `json:"county" csv:"County" validate:"required"`
	Year      int    `json:"year" csv:"Year" validate:"min=1900"`
	Incidents int    `json:"incidents" csv:"Incidents" validate:"min=0"`
}
