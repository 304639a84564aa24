package core

import (
	"context"
	"errors"
	"testing"
)

func TestService_Export(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Import(ctx, ConfirmRequest{Rows: []PreviewRow{
		{Sheet: "B", Purpose: PurposeBasicInfo, Row: 2, Fields: map[string]string{"EarNum": "B2", "BirthDate": "2008-07-23", "LittleSize": "2"}},
		{Sheet: "B", Purpose: PurposeBasicInfo, Row: 3, Fields: map[string]string{"EarNum": "A1", "BirWei": "3.5"}},
		{Sheet: "W", Purpose: PurposeWeightRecord, Row: 2, Fields: map[string]string{"EarNum": "A1", "MeaDate": "2015-08-11", "Weight": "27.2"}},
		{Sheet: "M", Purpose: PurposeMatingRecord, Row: 2, Fields: map[string]string{"EarNum": "B2", "Mat_date": "2012-01-18"}},
	}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	wb, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	names := make([]string, len(wb.Sheets))
	for i, sh := range wb.Sheets {
		names[i] = sh.Name
	}
	want := []string{ExportSheetAnimals, ExportSheetEvents, ExportSheetMeasurements}
	if len(names) != len(want) {
		t.Fatalf("sheets = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, names[i], want[i])
		}
	}

	animals := wb.Sheets[0]
	if got := animals.Rows[0].Values["EarNum"]; got != "A1" {
		t.Errorf("first animal = %q, want A1 (ordered by ear number)", got)
	}
	if got := animals.Rows[0].Values["BirWei"]; got != "3.5" {
		t.Errorf("BirWei = %q, want 3.5", got)
	}
	if got := animals.Rows[1].Values["BirthDate"]; got != "2008-07-23" {
		t.Errorf("BirthDate = %q, want 2008-07-23", got)
	}
	if got := animals.Rows[1].Values["LittleSize"]; got != "2" {
		t.Errorf("LittleSize = %q, want 2", got)
	}

	if got := wb.Sheets[1].Rows[0].Values; got["EarNum"] != "B2" || got["event_type"] != EventMating {
		t.Errorf("event row = %v", got)
	}
	if got := wb.Sheets[2].Rows[0].Values; got["value"] != "27.2" || got["record_type"] != RecordWeight {
		t.Errorf("measurement row = %v", got)
	}

	// The animal sheet analyses cleanly in default mode; the others are ignored.
	resp, err := svc.Analyze(ctx, wb, AnalyzeOptions{Mode: ModeDefault})
	if err != nil {
		t.Fatalf("Analyze(export): %v", err)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("re-analysis errors = %+v", resp.Errors)
	}
	if resp.Summary.ExistingAnimals != 2 {
		t.Errorf("ExistingAnimals = %d, want 2", resp.Summary.ExistingAnimals)
	}
}

func TestExportWorkbook_Empty(t *testing.T) {
	wb := ExportWorkbook(&HerdExport{})
	if len(wb.Sheets) != 1 || wb.Sheets[0].Name != ExportSheetEmpty {
		t.Fatalf("sheets = %+v, want a single %s sheet", wb.Sheets, ExportSheetEmpty)
	}
	if got := wb.Sheets[0].Rows[0].Values["說明"]; got != msgNothingToExport {
		t.Errorf("message = %q", got)
	}
}

func TestService_Export_NoStore(t *testing.T) {
	svc := NewService(nil, nil, ServiceConfig{})
	if _, err := svc.Export(context.Background()); !errors.Is(err, ErrNoStore) {
		t.Errorf("Export() error = %v, want ErrNoStore", err)
	}
}

func TestFromPg(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"text", FromPgText(ToPgText(" AL ")), "AL"},
		{"null text", FromPgText(ToPgText("")), ""},
		{"date", FromPgDate(ToPgDate("2008/7/23")), "2008-07-23"},
		{"null date", FromPgDate(ToPgDate("bad")), ""},
		{"float", FromPgFloat8(ToPgFloat8("27.20")), "27.2"},
		{"int", FromPgInt4(ToPgInt4("3")), "3"},
		{"null int", FromPgInt4(ToPgInt4("")), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
