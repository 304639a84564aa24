// Package workbook reads uploaded spreadsheets into core workbooks and
// writes template workbooks for the schema catalog.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/herdimport/internal/core"
)

// ErrUnsupportedType is returned for files that are not OOXML workbooks.
var ErrUnsupportedType = errors.New("unsupported file type")

// SupportedExtensions lists the accepted upload file extensions.
var SupportedExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// Open reads every worksheet of the workbook in r. The first row of a sheet
// is its header row; data rows keep their spreadsheet line numbers. Date
// cells are returned as yyyy/m/d so the date normalizer sees them the way a
// user typed them.
func Open(r io.Reader, name string) (*core.Workbook, error) {
	if !Supported(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(name))
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid workbook: %w", err)
	}
	defer f.Close()

	rd := &reader{f: f, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		rd.date1904 = *props.Date1904
	}

	wb := &core.Workbook{FileName: filepath.Base(name)}
	for _, sheet := range f.GetSheetList() {
		sh, err := rd.readSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("invalid workbook: sheet %q: %w", sheet, err)
		}
		wb.Sheets = append(wb.Sheets, sh)
	}
	return wb, nil
}

// Supported reports whether name has an accepted workbook extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

type reader struct {
	f          *excelize.File
	date1904   bool
	dateStyles map[int]bool // style index -> date format
}

func (rd *reader) readSheet(name string) (core.Sheet, error) {
	sh := core.Sheet{Name: name}

	rows, err := rd.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return sh, err
	}
	if len(rows) == 0 {
		return sh, nil
	}

	// Column index -> header; blank and repeated headers are dropped.
	columns := make(map[int]string, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		h = core.CleanCell(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		columns[i] = h
		sh.Headers = append(sh.Headers, h)
	}

	for r, cells := range rows[1:] {
		line := r + 2
		values := make(map[string]string, len(columns))
		for c, header := range columns {
			if c >= len(cells) {
				values[header] = ""
				continue
			}
			values[header] = rd.cellValue(name, c, line, cells[c])
		}
		sh.Rows = append(sh.Rows, core.RawRow{Line: line, Values: values})
	}

	return sh, nil
}

// cellValue converts serial dates in date-formatted cells and cleans the rest.
func (rd *reader) cellValue(sheet string, col, line int, raw string) string {
	raw = core.CleanCell(raw)
	if raw == "" {
		return ""
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}

	axis, err := excelize.CoordinatesToCellName(col+1, line)
	if err != nil {
		return raw
	}
	styleID, err := rd.f.GetCellStyle(sheet, axis)
	if err != nil || !rd.isDateStyle(styleID) {
		return raw
	}

	t, err := excelize.ExcelDateToTime(serial, rd.date1904)
	if err != nil {
		return raw
	}
	t = t.Round(time.Second)
	return fmt.Sprintf("%d/%d/%d", t.Year(), int(t.Month()), t.Day())
}

func (rd *reader) isDateStyle(id int) bool {
	if id == 0 {
		return false
	}
	if v, ok := rd.dateStyles[id]; ok {
		return v
	}

	isDate := false
	if style, err := rd.f.GetStyle(id); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDate || isDateFormatCode(*style.CustomNumFmt)
		}
	}
	rd.dateStyles[id] = isDate
	return isDate
}

// isDateNumFmt reports whether a built-in number format shows a date.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		// East Asian date formats
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains a year or
// day token. Quoted literals and bracketed sections are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	s := strings.ToLower(b.String())
	return strings.ContainsAny(s, "yd") || strings.Contains(s, "年")
}
