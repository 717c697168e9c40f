package domain

// EnrollmentRecord is one melted (county, year) enrollment observation from
// the wide-format enrollment workbook. The loader produces one record per
// county per year column that holds a parseable value.
type EnrollmentRecord struct {
	County     string `json:"county" csv:"County" validate:"required"`
	Year       int    `json:"year" csv:"Year" validate:"min=1900"`
	Enrollment int    `json:"enrollment" csv:"Enrollment" validate:"min=0"`
}
