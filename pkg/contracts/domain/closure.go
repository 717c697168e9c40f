package domain

// ClosureDay is one county-level school-closure record attributed to a
// stated cause. Days may be fractional (half-day closures appear in the
// source data). Loaders keep only rows whose reason matches a
// wildfire-related keyword.
type ClosureDay struct {
	County string  `json:"county" csv:"County" validate:"required"`
	Year   int     `json:"year" csv:"Year" validate:"min=1900"`
	Days   float64 `json:"days" csv:"Days" validate:"min=0"`
	Reason string  `json:"reason" csv:"Reason"`
}
