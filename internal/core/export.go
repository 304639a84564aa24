package core

// export.go renders stored records as a workbook. The animal sheet uses the
// basic_info field keys as headers, so an export imports back in default
// mode. Events and measurements are written for reading only.

import (
	"context"
	"fmt"
)

// Sheet names of an export workbook.
const (
	ExportSheetAnimals      = "Sheep_Basic_Info"
	ExportSheetEvents       = "Sheep_Events_Log"
	ExportSheetMeasurements = "Sheep_Historical_Data"
	ExportSheetEmpty        = "Empty_Export"
)

var (
	exportEventHeaders       = []string{"EarNum", "event_date", "event_type", "description", "notes"}
	exportMeasurementHeaders = []string{"EarNum", "record_date", "record_type", "value", "notes"}
)

const msgNothingToExport = "目前沒有數據可匯出"

// Export reads every stored record and returns it as a workbook.
func (s *Service) Export(ctx context.Context) (*Workbook, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AnalyzeTimeout)
	defer cancel()

	var data *HerdExport
	err := s.limiter.Run(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.store.ExportRecords(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export records: %w", err)
	}
	return ExportWorkbook(data), nil
}

// ExportWorkbook lays out data as sheets. Empty record kinds get no sheet;
// with no records at all a single explanatory sheet is returned.
func ExportWorkbook(data *HerdExport) *Workbook {
	wb := &Workbook{}
	if data == nil {
		data = &HerdExport{}
	}

	if len(data.Animals) > 0 {
		schema, _ := GetSchema(PurposeBasicInfo)
		sh := Sheet{Name: ExportSheetAnimals, Purpose: PurposeBasicInfo, Headers: schema.Keys()}
		for i, a := range data.Animals {
			sh.Rows = append(sh.Rows, RawRow{Line: i + 2, Values: animalValues(a)})
		}
		wb.Sheets = append(wb.Sheets, sh)
	}

	if len(data.Events) > 0 {
		sh := Sheet{Name: ExportSheetEvents, Headers: exportEventHeaders}
		for i, e := range data.Events {
			sh.Rows = append(sh.Rows, RawRow{Line: i + 2, Values: map[string]string{
				"EarNum":      e.EarNum,
				"event_date":  FromPgDate(e.Date),
				"event_type":  e.Type,
				"description": FromPgText(e.Description),
				"notes":       FromPgText(e.Notes),
			}})
		}
		wb.Sheets = append(wb.Sheets, sh)
	}

	if len(data.Measurements) > 0 {
		sh := Sheet{Name: ExportSheetMeasurements, Headers: exportMeasurementHeaders}
		for i, m := range data.Measurements {
			sh.Rows = append(sh.Rows, RawRow{Line: i + 2, Values: map[string]string{
				"EarNum":      m.EarNum,
				"record_date": FromPgDate(m.Date),
				"record_type": m.Type,
				"value":       FromPgFloat8(m.Value),
				"notes":       FromPgText(m.Notes),
			}})
		}
		wb.Sheets = append(wb.Sheets, sh)
	}

	if len(wb.Sheets) == 0 {
		wb.Sheets = append(wb.Sheets, Sheet{
			Name:    ExportSheetEmpty,
			Headers: []string{"說明"},
			Rows:    []RawRow{{Line: 2, Values: map[string]string{"說明": msgNothingToExport}}},
		})
	}
	return wb
}

// animalValues is the inverse of the basic_info row to AnimalRecord mapping.
func animalValues(a AnimalRecord) map[string]string {
	return map[string]string{
		"EarNum":     a.EarNum,
		"Breed":      FromPgText(a.Breed),
		"Sex":        FromPgText(a.Sex),
		"BirthDate":  FromPgDate(a.BirthDate),
		"Sire":       FromPgText(a.Sire),
		"Dam":        FromPgText(a.Dam),
		"BirWei":     FromPgFloat8(a.BirthWeight),
		"SireBre":    FromPgText(a.SireBreed),
		"DamBre":     FromPgText(a.DamBreed),
		"MoveCau":    FromPgText(a.MoveCause),
		"MoveDate":   FromPgDate(a.MoveDate),
		"Class":      FromPgText(a.Class),
		"LittleSize": FromPgInt4(a.LitterSize),
		"Lactation":  FromPgInt4(a.Lactation),
		"ManaClas":   FromPgText(a.ManagementClass),
		"FarmNum":    FromPgText(a.FarmNum),
		"RUni":       FromPgText(a.SourceRecordID),
	}
}
