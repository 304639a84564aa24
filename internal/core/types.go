// Package core provides the reconciliation pipeline for herd workbook imports.
// This package has no UI or transport dependencies and is shared by the API
// server and the CLI.
package core

import "time"

// PurposeID identifies the kind of records a worksheet holds.
type PurposeID string

const (
	PurposeUnset              PurposeID = ""
	PurposeIgnore             PurposeID = "ignore"
	PurposeBasicInfo          PurposeID = "basic_info"
	PurposeKiddingRecord      PurposeID = "kidding_record"
	PurposeMatingRecord       PurposeID = "mating_record"
	PurposeYeanRecord         PurposeID = "yean_record"
	PurposeWeightRecord       PurposeID = "weight_record"
	PurposeMilkYieldRecord    PurposeID = "milk_yield_record"
	PurposeMilkAnalysisRecord PurposeID = "milk_analysis_record"
	PurposeBreedMapping       PurposeID = "breed_mapping"
	PurposeSexMapping         PurposeID = "sex_mapping"
)

// Active reports whether sheets with this purpose take part in the pipeline.
// Unset and ignored sheets are excluded from every downstream stage.
func (p PurposeID) Active() bool {
	return p != PurposeUnset && p != PurposeIgnore
}

// IsCodeMapping reports whether the purpose is a code lookup table.
func (p PurposeID) IsCodeMapping() bool {
	return p == PurposeBreedMapping || p == PurposeSexMapping
}

// FieldType represents the expected data type for a canonical field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldNumeric
	FieldInteger
)

// String returns the wire name of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldInteger:
		return "integer"
	default:
		return "text"
	}
}

// MarshalText encodes the field type by name for JSON catalogs.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a field type name. Unknown names decode as text.
func (t *FieldType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "date":
		*t = FieldDate
	case "numeric":
		*t = FieldNumeric
	case "integer":
		*t = FieldInteger
	default:
		*t = FieldText
	}
	return nil
}

// FieldSpec defines a canonical field of a purpose schema.
type FieldSpec struct {
	Key      string    `json:"key"`               // Canonical key, unique within a schema
	Label    string    `json:"label"`             // Display label
	Required bool      `json:"required"`          // Row is rejected when the value is empty
	Example  string    `json:"example,omitempty"` // Sample value shown in templates
	Type     FieldType `json:"type"`              // Coercion applied by the row validator
	Aliases  []string  `json:"aliases,omitempty"` // Extra headers accepted in default mode
}

// SchemaDefinition is the ordered field list of one purpose.
type SchemaDefinition struct {
	Purpose PurposeID   `json:"purpose"`
	Text    string      `json:"text"`
	Fields  []FieldSpec `json:"fields"`
}

// Field returns the spec for key, if present.
func (s SchemaDefinition) Field(key string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Keys returns every field key in schema order.
func (s SchemaDefinition) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// RequiredKeys returns the keys of all required fields in schema order.
func (s SchemaDefinition) RequiredKeys() []string {
	var keys []string
	for _, f := range s.Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// PurposeOption is one entry of the purpose picker list.
type PurposeOption struct {
	ID   PurposeID `json:"id"`
	Text string    `json:"text"`
}

// RawRow is one spreadsheet row keyed by header text.
type RawRow struct {
	Line   int               // 1-indexed spreadsheet line number
	Values map[string]string // header -> raw cell value
}

// Sheet is one worksheet of an uploaded workbook.
type Sheet struct {
	Name    string
	Purpose PurposeID
	Headers []string // Header row in column order
	Rows    []RawRow
}

// Workbook is the ordered list of sheets of one upload.
type Workbook struct {
	FileName string
	Sheets   []Sheet
}

// Sheet returns the sheet with the given name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// FieldIssue is a single error or warning attached to a canonical field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationOutcome holds the issues found on one row.
type ValidationOutcome struct {
	Row      int          `json:"row"`
	Errors   []FieldIssue `json:"errors,omitempty"`
	Warnings []FieldIssue `json:"warnings,omitempty"`
}

// Valid reports whether the row has no blocking errors.
func (o ValidationOutcome) Valid() bool {
	return len(o.Errors) == 0
}

// PreviewRow is a resolved, normalized row staged for import.
type PreviewRow struct {
	Sheet   string            `json:"sheet"`
	Purpose PurposeID         `json:"purpose"`
	Row     int               `json:"row"`
	Fields  map[string]string `json:"fields"`
}

// RowIssue is a field issue addressed to a sheet row. Row 0 means the issue
// applies to the whole sheet.
type RowIssue struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SheetSummary describes how a sheet was classified during analysis.
type SheetSummary struct {
	Name    string    `json:"name"`
	Purpose PurposeID `json:"purpose"`
	Rows    int       `json:"rows"`
	Columns []string  `json:"columns"`
}

// PreviewSummary contains the counts shown above a preview.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	ErrorRows       int `json:"errorRows"`
	SkippedRows     int `json:"skippedRows"`
	NewAnimals      int `json:"newAnimals"`
	ExistingAnimals int `json:"existingAnimals"`
	DuplicateInFile int `json:"duplicateInFile"`
}

// AnalyzeResponse is the preview produced by analysis.
type AnalyzeResponse struct {
	Data             []PreviewRow   `json:"data"`
	Errors           []RowIssue     `json:"errors"`
	Warnings         []RowIssue     `json:"warnings"`
	Sheets           []SheetSummary `json:"sheets,omitempty"`
	Summary          PreviewSummary `json:"summary"`
	ProcessingTimeMs int64          `json:"processingTimeMs,omitempty"`
}

// HasErrors reports whether any blocking error is present.
func (r *AnalyzeResponse) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// SheetStructure describes one worksheet before any purpose is chosen.
type SheetStructure struct {
	Name             string              `json:"name"`
	Columns          []string            `json:"columns"`
	Rows             int                 `json:"rows"`
	Preview          []map[string]string `json:"preview"`
	SuggestedPurpose PurposeID           `json:"suggestedPurpose"`
}

// ConfirmRequest carries the resolved preview rows to commit.
type ConfirmRequest struct {
	FileName string       `json:"file_name,omitempty"`
	Rows     []PreviewRow `json:"rows"`
}

// RowFailure reports a row that could not be committed.
type RowFailure struct {
	Sheet   string `json:"sheet,omitempty"`
	Row     int    `json:"row"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ImportResult is the outcome of a confirm. Imported may be lower than the
// number of submitted rows; Errors then lists the rows that failed.
type ImportResult struct {
	Success  bool          `json:"success"`
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []RowFailure  `json:"errors"`
	BatchID  string        `json:"batch_id,omitempty"`
	Duration time.Duration `json:"-"`
}

// Partial reports whether some but not all rows failed.
func (r *ImportResult) Partial() bool {
	return r != nil && r.Imported > 0 && len(r.Errors) > 0
}

// CodeKind separates the breed and sex lookup tables.
type CodeKind string

const (
	CodeBreed CodeKind = "breed"
	CodeSex   CodeKind = "sex"
)

// CodeEntry is one row of a code lookup table.
type CodeEntry struct {
	Kind CodeKind `json:"kind"`
	Code string   `json:"code"`
	Name string   `json:"name"`
}

// BatchRecord is the history entry written for each committed import.
type BatchRecord struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	TotalRows int       `json:"totalRows"`
	Imported  int       `json:"imported"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
