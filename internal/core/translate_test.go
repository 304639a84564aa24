package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestTranslate_StructuredServerError(t *testing.T) {
	err := &ServerError{
		Status: http.StatusUnprocessableEntity,
		Body: ErrorBody{
			Details: []ErrorDetail{{Loc: []any{"body", "EarNum"}, Msg: "Field required"}},
		},
	}

	if !IsStructuredValidationError(err) {
		t.Fatal("IsStructuredValidationError() = false, want true")
	}

	got := Translate(err)
	msg, ok := got.Fields["EarNum"]
	if !ok {
		t.Fatalf("Fields = %v, want EarNum entry", got.Fields)
	}
	if !strings.Contains(msg, "耳號") || !strings.Contains(msg, "為必填欄位") {
		t.Errorf("EarNum message = %q, want display label and required phrase", msg)
	}
	if got.General != "操作失敗" {
		t.Errorf("General = %q, want default general message", got.General)
	}
}

func TestTranslate_DetailPatterns(t *testing.T) {
	tests := []struct {
		name  string
		field string
		msg   string
		want  string
	}{
		{"too short", "EarNum", "string too short", "耳號長度不足"},
		{"integer", "Lactation", "value is not a valid integer", "泌乳胎次必須是整數"},
		{"float", "Weight", "value is not a valid float", "體重必須是數字"},
		{"lower bound", "Milk", "ensure this value is greater than or equal to 0", "產乳量必須大於等於"},
		{"datetime", "BirthDate", "invalid datetime format", "出生日期日期格式無效"},
		{"unknown key uses key", "foo", "Field required", "foo為必填欄位"},
		{"unmatched passes through", "EarNum", "something odd happened", "something odd happened"},
		{"empty message", "EarNum", "", "驗證失敗"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TranslateMessage(tt.field, tt.msg); got != tt.want {
				t.Errorf("TranslateMessage(%q, %q) = %q, want %q", tt.field, tt.msg, got, tt.want)
			}
		})
	}
}

func TestTranslate_FieldErrorsPassThrough(t *testing.T) {
	err := &ServerError{
		Status: http.StatusBadRequest,
		Body: ErrorBody{
			Error:       "資料有誤",
			FieldErrors: map[string]string{"EarNum": "耳號已存在"},
			Details:     []ErrorDetail{{Loc: []any{"body", "rows", float64(0), "Weight"}, Msg: "value is not a valid float"}},
		},
	}

	got := Translate(err)
	if got.General != "資料有誤" {
		t.Errorf("General = %q", got.General)
	}
	if got.Fields["EarNum"] != "耳號已存在" {
		t.Errorf("pre-resolved field rewritten: %q", got.Fields["EarNum"])
	}
	if got.Fields["Weight"] != "體重必須是數字" {
		t.Errorf("Weight = %q", got.Fields["Weight"])
	}
	if fields := ExtractFieldErrors(err); len(fields) != 2 {
		t.Errorf("ExtractFieldErrors() = %v, want 2 entries", fields)
	}
}

func TestTranslate_Transport(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{0, "網路連接失敗，請檢查網路設定"},
		{400, "請求參數錯誤"},
		{401, "未授權，請重新登入"},
		{403, "權限不足"},
		{404, "請求的資源不存在"},
		{409, "資料衝突，請檢查輸入"},
		{422, "資料驗證失敗"},
		{500, "伺服器內部錯誤"},
		{502, "服務暫時不可用"},
		{503, "服務維護中"},
		{504, "請求超時"},
		{507, "伺服器內部錯誤"},
		{418, "請求失敗 (錯誤代碼: 418)"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			got := Translate(&TransportError{Status: tt.status})
			if got.General != tt.want {
				t.Errorf("General = %q, want %q", got.General, tt.want)
			}
			if len(got.Fields) != 0 {
				t.Errorf("Fields = %v, want none", got.Fields)
			}
		})
	}
}

func TestTranslate_ServerErrorWithoutDetails(t *testing.T) {
	if got := Translate(&ServerError{Status: 409, Body: ErrorBody{Error: "耳號重複"}}); got.General != "耳號重複" {
		t.Errorf("General = %q, want body message", got.General)
	}
	if got := Translate(&ServerError{Status: 503}); got.General != "服務維護中" {
		t.Errorf("General = %q, want status message", got.General)
	}
	if IsStructuredValidationError(&ServerError{Status: 409, Body: ErrorBody{Error: "x"}}) {
		t.Error("plain error body reported as structured")
	}
}

func TestTranslate_ClientProblems(t *testing.T) {
	me := &MappingError{Sheet: "W", Field: "Weight", Label: "體重 (公斤)", Reason: MappingUnmatched}
	got := Translate(fmt.Errorf("analyze: %w", me))
	if got.Fields["Weight"] != "缺少必要欄位：體重 (公斤)" {
		t.Errorf("mapping field message = %q", got.Fields["Weight"])
	}
	if !strings.Contains(got.General, "W") {
		t.Errorf("General = %q, want sheet name", got.General)
	}

	re := &RowError{Sheet: "W", Row: 7, Issues: []FieldIssue{{Field: "EarNum", Message: "耳號為必填欄位"}}}
	got = Translate(re)
	if got.General != "第 7 列資料驗證失敗" || got.Fields["EarNum"] != "耳號為必填欄位" {
		t.Errorf("Translate(RowError) = %+v", got)
	}
}

func TestTranslate_NonProblemErrors(t *testing.T) {
	if got := Translate(nil); got.General != "" || got.Fields != nil {
		t.Errorf("Translate(nil) = %+v, want zero", got)
	}
	if got := Translate(context.DeadlineExceeded); got.General != "請求逾時" {
		t.Errorf("General = %q, want timeout message", got.General)
	}
	if got := Translate(errors.New("kaboom")); got.General != "發生未預期的錯誤" {
		t.Errorf("General = %q, want fallback", got.General)
	}
}

func TestHandleAndReport(t *testing.T) {
	var reported []string
	sink := ReporterFunc(func(msg string) { reported = append(reported, msg) })

	got := HandleAndReport(&TransportError{Status: 0, Err: errors.New("dial tcp: i/o timeout")}, sink)

	if len(reported) != 1 || reported[0] != got.General {
		t.Errorf("reported %v, want [%q]", reported, got.General)
	}

	HandleAndReport(nil, sink)
	if len(reported) != 1 {
		t.Errorf("nil error reported: %v", reported)
	}

	HandleAndReport(errors.New("x"), nil)
}
