package dataset

import (
	"strconv"
	"strings"
)

// NormalizeCounty trims and lowercases a county name so that "Butte ",
// "BUTTE" and "butte" join as the same county.
func NormalizeCounty(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// parseFloat parses a numeric cell after stripping thousands separators.
// ok is false when the cell is blank or unparseable.
func parseFloat(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// parseInt parses an integer cell after stripping thousands separators.
// Values written as floats ("1200.0") are truncated, matching how the
// enrollment workbook stores counts.
func parseInt(raw string) (int, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, false
	}
	if val, err := strconv.Atoi(cleaned); err == nil {
		return val, true
	}
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// parseYear extracts a four-digit year from a header or cell. School-year
// headers like "2016-17" resolve to their leading year.
func parseYear(raw string) (int, bool) {
	cleaned := strings.TrimSpace(raw)
	if idx := strings.IndexAny(cleaned, "-/"); idx > 0 {
		cleaned = cleaned[:idx]
	}
	if len(cleaned) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(cleaned)
	if err != nil || year < 1900 || year > 2200 {
		return 0, false
	}
	return year, true
}

// CauseFilter decides whether a closure reason is wildfire-related. Matching
// is case-insensitive substring over the cleaned reason.
type CauseFilter struct {
	keywords []string
}

// NewCauseFilter builds a filter from the configured keyword set. Keywords
// are cleaned the same way reasons are.
func NewCauseFilter(keywords []string) *CauseFilter {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	return &CauseFilter{keywords: cleaned}
}

// Matches reports whether the reason contains any configured keyword.
func (f *CauseFilter) Matches(reason string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(reason))
	if cleaned == "" {
		return false
	}
	for _, kw := range f.keywords {
		if strings.Contains(cleaned, kw) {
			return true
		}
	}
	return false
}
