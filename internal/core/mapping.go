package core

// mapping.go resolves source columns of a sheet to canonical field keys.
//
// Two modes exist:
//  1. Default mode: a key resolves to the header equal to it (or to one of
//     its aliases) under case-insensitive exact comparison.
//  2. Explicit mode: a key resolves only through the caller's mapping config.
//
// Keys that cannot be resolved are reported once per sheet as mapping
// errors. The sheet is still processed with those fields absent in every row.

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MappingMode selects how columns are resolved.
type MappingMode int

const (
	ModeDefault MappingMode = iota
	ModeExplicit
)

// FieldMappingConfig maps canonical field keys to source column headers.
type FieldMappingConfig map[string]string

// SheetMapping is the explicit configuration of one sheet.
type SheetMapping struct {
	Purpose PurposeID          `json:"purpose" yaml:"purpose"`
	Columns FieldMappingConfig `json:"columns" yaml:"columns"`
}

// MappingConfig is the explicit configuration of a whole workbook, keyed by
// sheet name. It is the JSON carried in the mapping_config form field.
type MappingConfig struct {
	Sheets map[string]SheetMapping `json:"sheets" yaml:"sheets"`
}

// ParseMappingConfig decodes the JSON form of a MappingConfig.
func ParseMappingConfig(data []byte) (MappingConfig, error) {
	var cfg MappingConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return MappingConfig{}, fmt.Errorf("invalid mapping config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return MappingConfig{}, err
	}
	return cfg, nil
}

// Validate checks that every active sheet purpose has a schema.
func (c MappingConfig) Validate() error {
	for name, sm := range c.Sheets {
		if !sm.Purpose.Active() {
			continue
		}
		if _, err := GetSchema(sm.Purpose); err != nil {
			return fmt.Errorf("invalid mapping config: sheet %q: %w", name, err)
		}
	}
	return nil
}

// Encode returns the JSON wire form of the config.
func (c MappingConfig) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode mapping config: %w", err)
	}
	return string(b), nil
}

// ResolvedRow is a row whose values are keyed by canonical field key.
type ResolvedRow struct {
	Line   int
	Fields map[string]string
}

// ResolvedSheet is the output of the mapping resolver for one sheet.
type ResolvedSheet struct {
	Name          string
	Purpose       PurposeID
	Schema        SchemaDefinition
	Columns       map[string]string // field key -> source header
	Rows          []ResolvedRow
	MappingErrors []*MappingError
}

// ResolveSheet maps the raw rows of sheet onto schema. In explicit mode the
// resolution uses cfg only; in default mode cfg is ignored.
func ResolveSheet(sheet Sheet, schema SchemaDefinition, mode MappingMode, cfg FieldMappingConfig) ResolvedSheet {
	out := ResolvedSheet{
		Name:    sheet.Name,
		Purpose: schema.Purpose,
		Schema:  schema,
		Columns: make(map[string]string, len(schema.Fields)),
	}

	headerIdx := MakeHeaderIndex(sheet.Headers)

	for _, spec := range schema.Fields {
		var (
			header string
			ok     bool
		)
		switch mode {
		case ModeExplicit:
			source, mapped := cfg[spec.Key]
			source = strings.TrimSpace(source)
			if !mapped || source == "" {
				if spec.Required {
					out.MappingErrors = append(out.MappingErrors, &MappingError{
						Sheet: sheet.Name, Field: spec.Key, Label: spec.Label, Reason: MappingUnmapped,
					})
				}
				continue
			}
			header, ok = headerIdx.Lookup(source)
			if !ok {
				out.MappingErrors = append(out.MappingErrors, &MappingError{
					Sheet: sheet.Name, Field: spec.Key, Label: spec.Label, Column: source, Reason: MappingColumnMissing,
				})
				continue
			}
		default:
			header, ok = resolveDefault(headerIdx, spec)
			if !ok {
				if spec.Required {
					out.MappingErrors = append(out.MappingErrors, &MappingError{
						Sheet: sheet.Name, Field: spec.Key, Label: spec.Label, Reason: MappingUnmatched,
					})
				}
				continue
			}
		}
		out.Columns[spec.Key] = header
	}

	out.Rows = make([]ResolvedRow, 0, len(sheet.Rows))
	for _, raw := range sheet.Rows {
		fields := make(map[string]string, len(out.Columns))
		for key, header := range out.Columns {
			if v, ok := raw.Values[header]; ok {
				fields[key] = CleanCell(v)
			}
		}
		out.Rows = append(out.Rows, ResolvedRow{Line: raw.Line, Fields: fields})
	}

	return out
}

// resolveDefault matches the key, then each alias, against the headers.
func resolveDefault(idx HeaderIndex, spec FieldSpec) (string, bool) {
	if h, ok := idx.Lookup(spec.Key); ok {
		return h, true
	}
	for _, alias := range spec.Aliases {
		if h, ok := idx.Lookup(alias); ok {
			return h, true
		}
	}
	return "", false
}

// AssignPurposes sets the purpose of every sheet. In default mode purposes
// come from the standard sheet names; in explicit mode from cfg. Sheets
// without an assignment stay unset and are excluded downstream.
func AssignPurposes(wb *Workbook, mode MappingMode, cfg MappingConfig) {
	for i := range wb.Sheets {
		sh := &wb.Sheets[i]
		switch mode {
		case ModeExplicit:
			if sm, ok := cfg.Sheets[sh.Name]; ok {
				sh.Purpose = sm.Purpose
			} else {
				sh.Purpose = PurposeUnset
			}
		default:
			sh.Purpose = DefaultPurposeForSheet(sh.Name)
		}
	}
}
