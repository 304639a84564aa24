package core

// convert.go provides conversion of cleaned cell values to numbers and to
// PostgreSQL types.
//
// Spreadsheet cells carry common artifacts: Excel formula prefixes (="value"),
// surrounding quotes, thousands separators and stray whitespace. All ToPg*
// functions return pgtype values with Valid=false for empty/invalid input so
// that storage receives NULL. The FromPg* functions render stored values back
// to cell text.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// integerRegex accepts whole numbers, including the "3.0" spreadsheets emit
// for integer cells.
var integerRegex = regexp.MustCompile(`^[+-]?\d+(\.0+)?$`)

// ParseNumber parses a decimal cell value after removing thousands separators.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseInteger parses a whole-number cell value.
func ParseInteger(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if !integerRegex.MatchString(s) {
		return 0, false
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a date string to pgtype.Date via NormalizeDate.
func ToPgDate(s string) pgtype.Date {
	t, ok := ParseNormalizedDate(NormalizeDate(s))
	if !ok {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ToPgFloat8 converts a numeric string to pgtype.Float8.
func ToPgFloat8(s string) pgtype.Float8 {
	f, ok := ParseNumber(s)
	if !ok {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ToPgInt4 converts a whole-number string to pgtype.Int4.
func ToPgInt4(s string) pgtype.Int4 {
	n, ok := ParseInteger(s)
	if !ok || n > 1<<31-1 || n < -1<<31 {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// FromPgText returns the text, or "" when invalid.
func FromPgText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// FromPgDate renders a date as YYYY-MM-DD, or "" when invalid.
func FromPgDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(time.DateOnly)
}

// FromPgFloat8 renders a float in its shortest form, or "" when invalid.
func FromPgFloat8(f pgtype.Float8) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}

// FromPgInt4 renders an integer, or "" when invalid.
func FromPgInt4(n pgtype.Int4) string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(int(n.Int32))
}

// HeaderIndex maps lowercased header text to the header as written in the sheet.
type HeaderIndex map[string]string

// MakeHeaderIndex builds a HeaderIndex for case-insensitive exact lookups.
// The first occurrence wins when two headers differ only by case.
func MakeHeaderIndex(headers []string) HeaderIndex {
	idx := make(HeaderIndex, len(headers))
	for _, h := range headers {
		key := strings.ToLower(CleanCell(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = h
		}
	}
	return idx
}

// Lookup returns the sheet header matching name under case-insensitive
// exact comparison.
func (idx HeaderIndex) Lookup(name string) (string, bool) {
	h, ok := idx[strings.ToLower(strings.TrimSpace(name))]
	return h, ok
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
