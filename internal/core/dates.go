package core

// dates.go provides strict normalization of date-like cell values.
//
// Spreadsheet dates arrive in many shapes ("2023/1/5", "2023-01-05 00:00:00",
// placeholder strings). NormalizeDate accepts only year-month-day ordering
// with '-' or '/' separators and re-renders the date as YYYY-MM-DD. Any value
// it cannot vouch for becomes the empty string.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// invalidDatePatterns reject values that are clearly not dates before any
// parsing is attempted.
var invalidDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invalid`),
	regexp.MustCompile(`[@*#&]`),
	regexp.MustCompile(`completely-invalid`),
}

// digitsRegex matches a strictly numeric date part.
var digitsRegex = regexp.MustCompile(`^\d+$`)

const (
	minDateYear = 1900 // exclusive
	maxDateYear = 2100 // exclusive
)

// NormalizeDate validates a date string and returns it as YYYY-MM-DD.
// Returns "" for empty, malformed, out-of-range or non-existent dates
// (e.g. 2023-02-30). The result is always a fixed point:
// NormalizeDate(NormalizeDate(s)) == NormalizeDate(s).
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, p := range invalidDatePatterns {
		if p.MatchString(s) {
			return ""
		}
	}

	// Drop the time component, keep the date portion only
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}

	s = strings.ReplaceAll(s, "/", "-")
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return ""
	}

	var nums [3]int
	for i, part := range parts {
		if !digitsRegex.MatchString(part) {
			return ""
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return ""
		}
		nums[i] = n
	}
	year, month, day := nums[0], nums[1], nums[2]

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	if year <= minDateYear || year >= maxDateYear {
		return ""
	}

	// time.Date normalizes overflow (Feb 30 -> Mar 2); a mismatch means the
	// date does not exist.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// IsNullDatePlaceholder reports whether s is the spreadsheet "no date" value.
// Excel exports empty date cells as day zero of 1900, which renders as
// 1900-01-00 or 1900-01-01 depending on the tool.
func IsNullDatePlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "/", "-")
	switch s {
	case "1900-01-01", "1900-1-1", "1900-01-00", "1900-1-0", "1899-12-31", "1899-12-30":
		return true
	}
	return false
}

// ParseNormalizedDate parses a value produced by NormalizeDate.
func ParseNormalizedDate(s string) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
