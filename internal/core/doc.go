// Package core provides the reconciliation pipeline for herd workbook imports.
//
// This package holds all domain logic independent of any UI or transport
// layer. The API server, the CLI and tests use it without modification.
//
// # Pipeline
//
// An uploaded workbook flows through these stages:
//
//  1. Purpose assignment: each sheet is given a [PurposeID], by standard
//     sheet name in default mode or by the caller's [MappingConfig].
//  2. Mapping: [ResolveSheet] maps source columns onto the canonical field
//     keys of the purpose schema. Unresolved required keys become sheet-level
//     [MappingError] values.
//  3. Validation: [RowValidator] checks each resolved row and normalizes
//     dates with [NormalizeDate]. Errors block the row; warnings do not.
//  4. Preview: [Service.Analyze] returns the staged rows with all errors and
//     warnings as an [AnalyzeResponse].
//  5. Commit: [Service.Import] writes confirmed rows in one transaction with a
//     savepoint per row, so some rows may commit while others fail.
//
// # Schema Registry
//
// Schemas are registered at init time using [Register]:
//
//	core.Register(SchemaDefinition{
//	    Purpose: PurposeWeightRecord,
//	    Text:    "體重記錄 (Weight Record)",
//	    Fields: []FieldSpec{
//	        {Key: "EarNum", Label: "耳號", Required: true},
//	        {Key: "Weight", Label: "體重 (公斤)", Required: true, Type: FieldNumeric},
//	    },
//	})
//
// # Error Handling
//
// Every error shown to a user passes through [Translate] or [MapError].
// Pipeline failures are modelled as the sealed [Problem] union:
// [MappingError], [RowError], [ServerError] and [TransportError]. Other
// technical errors map to coded messages for support reference:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL006: Validation errors (dates, numbers, missing columns)
//   - FILE001-FILE005: File errors (size, format, empty workbook)
//   - IMP001-IMP005: Import errors (cancelled, timeout, busy)
package core
