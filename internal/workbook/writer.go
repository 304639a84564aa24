package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/herdimport/internal/core"
)

// Write renders wb as an xlsx file. Each sheet gets its header row followed
// by the row values in header order, all as string cells, so Open reads
// back the same values.
func Write(w io.Writer, wb *core.Workbook) error {
	if wb == nil || len(wb.Sheets) == 0 {
		return core.ErrEmptyWorkbook
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := headerStyle(f)
	if err != nil {
		return err
	}

	for i, sh := range wb.Sheets {
		if err := addSheet(f, i, sh.Name); err != nil {
			return err
		}
		if err := writeDataSheet(f, sh, bold); err != nil {
			return fmt.Errorf("write sheet %s: %w", sh.Name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDataSheet(f *excelize.File, sh core.Sheet, style int) error {
	if len(sh.Headers) == 0 {
		return nil
	}

	header := make([]any, len(sh.Headers))
	for i, h := range sh.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sh.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range sh.Rows {
		values := make([]any, len(sh.Headers))
		for j, h := range sh.Headers {
			values[j] = row.Values[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.Name, cell, &values); err != nil {
			return err
		}
	}

	return styleHeader(f, sh.Name, len(sh.Headers), style)
}
