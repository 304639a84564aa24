package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/herdimport/internal/core"
)

// TemplatePurposes returns every purpose that has a schema, in catalog order.
func TemplatePurposes() []core.PurposeID {
	var out []core.PurposeID
	for _, opt := range core.ListPurposes() {
		if _, err := core.GetSchema(opt.ID); err == nil {
			out = append(out, opt.ID)
		}
	}
	return out
}

// WriteTemplate writes a workbook with one sheet per purpose to w. With no
// purposes, every schema gets a sheet. Sheets are named by purpose id, so
// the template resolves in default mode. Each sheet holds the canonical
// header row and one example row.
func WriteTemplate(w io.Writer, purposes ...core.PurposeID) error {
	if len(purposes) == 0 {
		purposes = TemplatePurposes()
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := headerStyle(f)
	if err != nil {
		return err
	}

	for i, p := range purposes {
		schema, err := core.GetSchema(p)
		if err != nil {
			return err
		}

		name := string(p)
		if err := addSheet(f, i, name); err != nil {
			return err
		}

		if err := writeSchemaSheet(f, name, schema, bold); err != nil {
			return fmt.Errorf("write sheet %s: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2EFDA"}},
	})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}
	return style, nil
}

// addSheet names the i-th sheet of f. A new file already holds one sheet,
// which is renamed rather than left empty.
func addSheet(f *excelize.File, i int, name string) error {
	if i == 0 {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns, style int) error {
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

func writeSchemaSheet(f *excelize.File, sheet string, schema core.SchemaDefinition, style int) error {
	header := make([]any, len(schema.Fields))
	example := make([]any, len(schema.Fields))
	for i, fs := range schema.Fields {
		header[i] = fs.Key
		example[i] = fs.Example
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &example); err != nil {
		return err
	}

	return styleHeader(f, sheet, len(schema.Fields), style)
}
