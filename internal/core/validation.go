package core

// validation.go provides row-level validation of resolved rows.
//
// Each FieldSpec of the purpose schema is checked against the resolved value:
//  1. Required: an empty required field is an error.
//  2. Type: dates go through NormalizeDate, numbers and integers must parse.
//     A failed coercion is an error, never a silent drop.
//  3. Heuristics: implausible values, future dates and unknown codes are
//     warnings. Warnings never block an import.
//
// Valid values are rewritten to their normalized form so that the preview
// carries exactly what will be committed.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CodeLookup resolves breed and sex codes to their names.
type CodeLookup interface {
	Lookup(kind CodeKind, code string) (string, bool)
}

// CodeSet holds the codes declared by the mapping sheets of a workbook.
type CodeSet map[CodeKind]map[string]string

// Add records code with its name under kind.
func (s CodeSet) Add(kind CodeKind, code, name string) {
	if s[kind] == nil {
		s[kind] = make(map[string]string)
	}
	s[kind][code] = name
}

// Lookup implements CodeLookup.
func (s CodeSet) Lookup(kind CodeKind, code string) (string, bool) {
	name, ok := s[kind][code]
	return name, ok
}

// Len returns the number of codes of all kinds.
func (s CodeSet) Len() int {
	n := 0
	for _, m := range s {
		n += len(m)
	}
	return n
}

// plausibleRange bounds a numeric field; values outside raise a warning.
type plausibleRange struct {
	min, max float64
}

var plausibleRanges = map[string]plausibleRange{
	"Weight":     {0.5, 250},
	"BirWei":     {0.3, 10},
	"Milk":       {0, 12},
	"AMFat":      {1, 15},
	"LittleSize": {1, 8},
}

// codeFields lists the fields holding breed or sex codes.
var codeFields = map[string]CodeKind{
	"Breed":   CodeBreed,
	"SireBre": CodeBreed,
	"DamBre":  CodeBreed,
	"Sex":     CodeSex,
	"KidSex":  CodeSex,
}

// RowValidator validates resolved rows against one purpose schema.
type RowValidator struct {
	schema SchemaDefinition
	codes  []CodeLookup
	now    func() time.Time
}

// NewRowValidator creates a validator for schema. Code fields are checked
// against every non-nil lookup; with none, code checks are skipped.
func NewRowValidator(schema SchemaDefinition, codes ...CodeLookup) *RowValidator {
	v := &RowValidator{schema: schema, now: time.Now}
	for _, c := range codes {
		if c != nil {
			v.codes = append(v.codes, c)
		}
	}
	return v
}

// ValidateRow checks one row and returns its outcome together with the
// normalized field values. Fields with errors keep their raw value.
func (v *RowValidator) ValidateRow(row ResolvedRow) (ValidationOutcome, map[string]string) {
	out := ValidationOutcome{Row: row.Line}
	fields := make(map[string]string, len(row.Fields))

	for _, spec := range v.schema.Fields {
		raw := strings.TrimSpace(row.Fields[spec.Key])

		if raw == "" {
			if spec.Required {
				out.Errors = append(out.Errors, FieldIssue{
					Field:   spec.Key,
					Message: spec.Label + "為必填欄位",
					Code:    "VAL003",
				})
			}
			continue
		}

		if spec.Type == FieldDate && IsNullDatePlaceholder(raw) {
			if spec.Required {
				out.Errors = append(out.Errors, FieldIssue{
					Field:   spec.Key,
					Message: spec.Label + "格式無效",
					Code:    "VAL001",
				})
				fields[spec.Key] = raw
			} else {
				out.Warnings = append(out.Warnings, FieldIssue{
					Field:   spec.Key,
					Message: fmt.Sprintf("%s為空白日期 (%s)，將不會匯入", spec.Label, raw),
				})
			}
			continue
		}

		value, err := ValidateCell(raw, spec)
		if err != nil {
			out.Errors = append(out.Errors, FieldIssue{
				Field:   spec.Key,
				Message: spec.Label + cellErrorSuffix(spec.Type),
				Code:    MapError(err).Code,
			})
			fields[spec.Key] = raw
			continue
		}
		fields[spec.Key] = value

		out.Warnings = append(out.Warnings, v.heuristics(spec, value)...)
	}

	return out, fields
}

func (v *RowValidator) heuristics(spec FieldSpec, value string) []FieldIssue {
	var issues []FieldIssue

	if r, ok := plausibleRanges[spec.Key]; ok {
		if f, ok := ParseNumber(value); ok && (f < r.min || f > r.max) {
			issues = append(issues, FieldIssue{
				Field:   spec.Key,
				Message: fmt.Sprintf("%s數值 %s 超出合理範圍 (%g–%g)", spec.Label, value, r.min, r.max),
			})
		}
	}

	if spec.Type == FieldDate {
		if t, ok := ParseNormalizedDate(value); ok && t.After(v.now()) {
			issues = append(issues, FieldIssue{
				Field:   spec.Key,
				Message: fmt.Sprintf("%s %s 晚於今天", spec.Label, value),
			})
		}
	}

	if kind, ok := codeFields[spec.Key]; ok && len(v.codes) > 0 && !v.knownCode(kind, value) {
		issues = append(issues, FieldIssue{
			Field:   spec.Key,
			Message: fmt.Sprintf("%s「%s」不在代碼對照表中", spec.Label, value),
		})
	}

	return issues
}

func (v *RowValidator) knownCode(kind CodeKind, code string) bool {
	for _, c := range v.codes {
		if _, ok := c.Lookup(kind, code); ok {
			return true
		}
	}
	return false
}

// ValidateCell coerces a non-empty value to the spec's type and returns its
// normalized form.
func ValidateCell(value string, spec FieldSpec) (string, error) {
	switch spec.Type {
	case FieldDate:
		norm := NormalizeDate(value)
		if norm == "" {
			return "", fmt.Errorf("invalid date %q for %s", value, spec.Key)
		}
		return norm, nil
	case FieldNumeric:
		f, ok := ParseNumber(value)
		if !ok {
			return "", fmt.Errorf("invalid number %q for %s", value, spec.Key)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case FieldInteger:
		n, ok := ParseInteger(value)
		if !ok {
			return "", fmt.Errorf("invalid number %q for %s: not an integer", value, spec.Key)
		}
		return strconv.FormatInt(n, 10), nil
	default:
		return value, nil
	}
}

func cellErrorSuffix(t FieldType) string {
	switch t {
	case FieldDate:
		return "格式無效"
	case FieldInteger:
		return "必須是整數"
	default:
		return "必須是數字"
	}
}

// IsEmptyRow reports whether every resolved value of the row is blank.
func IsEmptyRow(row ResolvedRow) bool {
	for _, v := range row.Fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// SheetValidation is the aggregated validation result of one sheet.
type SheetValidation struct {
	Rows     []PreviewRow
	Errors   []RowIssue
	Warnings []RowIssue
	Skipped  int // blank rows
}

// ValidateSheet validates every non-blank row of a resolved sheet and
// aggregates the outcomes. Mapping errors are reported as row 0 issues.
func ValidateSheet(rs ResolvedSheet, codes ...CodeLookup) SheetValidation {
	var sv SheetValidation

	for _, me := range rs.MappingErrors {
		sv.Errors = append(sv.Errors, RowIssue{
			Sheet:   rs.Name,
			Row:     0,
			Field:   me.Field,
			Message: me.Message(),
			Code:    me.Code(),
		})
	}

	v := NewRowValidator(rs.Schema, codes...)
	for _, row := range rs.Rows {
		if IsEmptyRow(row) {
			sv.Skipped++
			continue
		}
		outcome, fields := v.ValidateRow(row)
		sv.Rows = append(sv.Rows, PreviewRow{
			Sheet:   rs.Name,
			Purpose: rs.Purpose,
			Row:     row.Line,
			Fields:  fields,
		})
		for _, is := range outcome.Errors {
			sv.Errors = append(sv.Errors, RowIssue{Sheet: rs.Name, Row: row.Line, Field: is.Field, Message: is.Message, Code: is.Code})
		}
		for _, is := range outcome.Warnings {
			sv.Warnings = append(sv.Warnings, RowIssue{Sheet: rs.Name, Row: row.Line, Field: is.Field, Message: is.Message, Code: is.Code})
		}
	}

	return sv
}
