package core

// problems.go defines the sealed union of pipeline failures.
//
// Every failure the pipeline surfaces to a user is one of:
//
//	*MappingError   - a schema key resolved to no column (sheet level)
//	*RowError       - a row failed validation (row level, blocks that row)
//	*ServerError    - the backend answered with an error body
//	*TransportError - no usable body, classified by status (0 = no response)
//
// The union is closed by the unexported problem method, so a type switch in
// Translate covers every case.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyWorkbook is returned when no active sheet holds a data row.
	ErrEmptyWorkbook = errors.New("empty workbook: no data rows found")

	// ErrUnknownAnimal is returned when an event or measurement refers to an
	// ear number that is neither stored nor part of the same import.
	ErrUnknownAnimal = errors.New("unknown ear number")
)

// Problem is implemented only by the pipeline failure types in this file.
type Problem interface {
	error
	problem()
}

// MappingReason tells why a schema key could not be resolved.
type MappingReason int

const (
	MappingUnmatched     MappingReason = iota // Default mode: no header matched the key
	MappingUnmapped                           // Explicit mode: key absent from the config
	MappingColumnMissing                      // Explicit mode: configured column not in the sheet
)

// MappingError is a sheet-level failure to resolve a canonical field.
type MappingError struct {
	Sheet  string
	Field  string
	Label  string
	Column string // configured source column, explicit mode only
	Reason MappingReason
}

func (*MappingError) problem() {}

func (e *MappingError) Error() string {
	if e.Reason == MappingColumnMissing {
		return fmt.Sprintf("sheet %q: column not found: %q for field %s", e.Sheet, e.Column, e.Field)
	}
	return fmt.Sprintf("sheet %q: missing required column for field %s", e.Sheet, e.Field)
}

// Message returns the localized text shown for the error.
func (e *MappingError) Message() string {
	switch e.Reason {
	case MappingUnmapped:
		return fmt.Sprintf("%s未設定對應欄位", e.Label)
	case MappingColumnMissing:
		return fmt.Sprintf("找不到%s的對應欄位「%s」", e.Label, e.Column)
	default:
		return fmt.Sprintf("缺少必要欄位：%s", e.Label)
	}
}

// Code returns the support code of the error.
func (e *MappingError) Code() string {
	if e.Reason == MappingColumnMissing {
		return "VAL005"
	}
	return "VAL004"
}

// RowError reports the blocking issues of one row.
type RowError struct {
	Sheet  string
	Row    int
	Issues []FieldIssue
}

func (*RowError) problem() {}

func (e *RowError) Error() string {
	keys := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		keys = append(keys, is.Field)
	}
	return fmt.Sprintf("sheet %q row %d: invalid fields %s", e.Sheet, e.Row, strings.Join(keys, ", "))
}

// ErrorDetail is one entry of a structured validation body. Loc is the path
// to the offending value; its last element is the field key.
type ErrorDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// Field returns the last path element of Loc as a string.
func (d ErrorDetail) Field() string {
	if len(d.Loc) == 0 {
		return "unknown"
	}
	switch v := d.Loc[len(d.Loc)-1].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%d", int(v))
	default:
		return fmt.Sprint(v)
	}
}

// ErrorBody is the JSON error document returned by the API.
type ErrorBody struct {
	Error       string            `json:"error,omitempty"`
	Code        string            `json:"code,omitempty"`
	Action      string            `json:"action,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Details     []ErrorDetail     `json:"details,omitempty"`
}

// ServerError is an error response that carried a decodable body.
type ServerError struct {
	Status int
	Body   ErrorBody
}

func (*ServerError) problem() {}

func (e *ServerError) Error() string {
	if e.Body.Error != "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Body.Error)
	}
	return fmt.Sprintf("server error %d", e.Status)
}

// Structured reports whether the body carries field-level errors.
func (e *ServerError) Structured() bool {
	return len(e.Body.FieldErrors) > 0 || e.Body.Details != nil
}

// TransportError is a failed exchange without a usable body. Status is 0
// when no response was received at all.
type TransportError struct {
	Status int
	Err    error
}

func (*TransportError) problem() {}

func (e *TransportError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("no response: %v", e.Err)
	case e.Status == 0:
		return "no response"
	case e.Err != nil:
		return fmt.Sprintf("http status %d: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("http status %d", e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// NoResponse reports whether the request never got an answer.
func (e *TransportError) NoResponse() bool { return e.Status == 0 }
