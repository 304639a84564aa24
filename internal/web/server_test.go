package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/herdimport/internal/config"
	"github.com/JonMunkholm/herdimport/internal/core"
	"github.com/JonMunkholm/herdimport/internal/workbook"
)

// unusedStore satisfies core.Store for requests that never reach storage.
type unusedStore struct{}

var errUnused = errors.New("store not expected in this test")

func (unusedStore) Begin(context.Context) (core.Tx, error)           { return nil, errUnused }
func (unusedStore) LoadCodes(context.Context) ([]core.CodeEntry, error) { return nil, errUnused }
func (unusedStore) ExistingEarNums(context.Context, []string) (map[string]bool, error) {
	return nil, errUnused
}
func (unusedStore) RecentBatches(context.Context, int) ([]core.BatchRecord, error) {
	return nil, errUnused
}
func (unusedStore) ExportRecords(context.Context) (*core.HerdExport, error) { return nil, errUnused }

// exportStore serves a fixed herd to the export endpoint.
type exportStore struct {
	unusedStore
	data *core.HerdExport
}

func (s exportStore) ExportRecords(context.Context) (*core.HerdExport, error) { return s.data, nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Import: config.ImportConfig{
			MaxFileSize:    1 << 20,
			MaxConcurrent:  2,
			MaxWaitTime:    time.Second,
			AnalyzeTimeout: time.Minute,
			Timeout:        time.Minute,
		},
		Security: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"test-key"}},
	}
}

func newTestServer(store core.Store) *Server {
	svc := core.NewService(store, nil, core.ServiceConfig{MaxConcurrent: 2})
	return NewServer(svc, testConfig(), nil)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("X-API-Key", "test-key")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func templateBytes(t *testing.T, purposes ...core.PurposeID) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := workbook.WriteTemplate(&buf, purposes...); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	return buf.Bytes()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorBody {
	t.Helper()
	var body core.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

// =============================================================================
// Catalog
// =============================================================================

func TestHealthz_NoAuth(t *testing.T) {
	s := newTestServer(nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"max_operations":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAPI_RequiresKey(t *testing.T) {
	s := newTestServer(nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/purposes", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestListPurposesAndSchema(t *testing.T) {
	s := newTestServer(nil)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/purposes", nil))
	var opts []core.PurposeOption
	if err := json.Unmarshal(rec.Body.Bytes(), &opts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(opts) != len(core.ListPurposes()) {
		t.Errorf("got %d options, want %d", len(opts), len(core.ListPurposes()))
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/purposes/weight_record", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"key":"Weight"`) {
		t.Errorf("schema response %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/purposes/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown purpose status = %d, want 404", rec.Code)
	}
}

func TestDownloadTemplate(t *testing.T) {
	s := newTestServer(nil)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/template/mating_record", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "mating_record_template.xlsx") {
		t.Errorf("Content-Disposition = %q", got)
	}

	wb, err := workbook.Open(bytes.NewReader(rec.Body.Bytes()), "t.xlsx")
	if err != nil {
		t.Fatalf("downloaded template does not open: %v", err)
	}
	if len(wb.Sheets) != 1 || wb.Sheets[0].Name != "mating_record" {
		t.Errorf("sheets = %+v", wb.Sheets)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/template/nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown purpose status = %d, want 400", rec.Code)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(exportStore{data: &core.HerdExport{
		Animals: []core.AnimalRecord{{EarNum: "0009AL088089", BirthDate: core.ToPgDate("2008/7/23")}},
	}})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "herd_export_") {
		t.Errorf("Content-Disposition = %q", got)
	}

	wb, err := workbook.Open(bytes.NewReader(rec.Body.Bytes()), "export.xlsx")
	if err != nil {
		t.Fatalf("export does not open: %v", err)
	}
	if len(wb.Sheets) != 1 || wb.Sheets[0].Name != core.ExportSheetAnimals {
		t.Fatalf("sheets = %+v", wb.Sheets)
	}
	row := wb.Sheets[0].Rows[0]
	if row.Values["EarNum"] != "0009AL088089" || row.Values["BirthDate"] != "2008-07-23" {
		t.Errorf("row = %v", row.Values)
	}
}

func TestExport_NoStore(t *testing.T) {
	s := newTestServer(nil)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

// =============================================================================
// Import flow
// =============================================================================

func TestAnalyze_DefaultMode(t *testing.T) {
	s := newTestServer(nil)
	req := uploadRequest(t, "/api/import/analyze", "template.xlsx", templateBytes(t), map[string]string{
		"is_default_mode": "true",
	})

	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp core.AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("template example rows should validate: %+v", resp.Errors)
	}
	if len(resp.Data) != len(workbook.TemplatePurposes()) {
		t.Errorf("data rows = %d, want one per purpose", len(resp.Data))
	}
}

func TestAnalyze_ModeFlagOmitted(t *testing.T) {
	s := newTestServer(nil)
	req := uploadRequest(t, "/api/import/analyze", "template.xlsx", templateBytes(t, core.PurposeWeightRecord), nil)

	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp core.AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Errors) != 0 || len(resp.Data) != 1 {
		t.Errorf("omitted flag should select default mode: errors=%+v data=%d", resp.Errors, len(resp.Data))
	}
}

func TestAnalyze_ExplicitModeMissingKey(t *testing.T) {
	s := newTestServer(nil)
	cfg := `{"sheets":{"weight_record":{"purpose":"weight_record","columns":{"EarNum":"EarNum","MeaDate":"MeaDate"}}}}`
	req := uploadRequest(t, "/api/import/analyze", "w.xlsx", templateBytes(t, core.PurposeWeightRecord), map[string]string{
		"is_default_mode": "false",
		"mapping_config":  cfg,
	})

	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp core.AnalyzeResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Errors) == 0 || resp.Errors[0].Row != 0 || resp.Errors[0].Field != "Weight" {
		t.Errorf("want sheet-level Weight mapping error, got %+v", resp.Errors)
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	s := newTestServer(nil)

	tests := []struct {
		name     string
		req      *http.Request
		wantCode string
	}{
		{
			name:     "unsupported type",
			req:      uploadRequest(t, "/api/import/analyze", "herd.csv", []byte("a,b"), nil),
			wantCode: "FILE003",
		},
		{
			name:     "corrupt workbook",
			req:      uploadRequest(t, "/api/import/analyze", "herd.xlsx", []byte("not a zip"), nil),
			wantCode: "FILE002",
		},
		{
			name: "invalid mapping purpose",
			req: uploadRequest(t, "/api/import/analyze", "w.xlsx", templateBytes(t, core.PurposeWeightRecord), map[string]string{
				"is_default_mode": "false",
				"mapping_config":  `{"sheets":{"weight_record":{"purpose":"bogus"}}}`,
			}),
			wantCode: "VAL006",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestAnalyze_NoFile(t *testing.T) {
	s := newTestServer(nil)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("is_default_mode", "true")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/import/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := do(t, s, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "FILE004" {
		t.Errorf("code = %q, want FILE004", got)
	}
}

func TestInspectSheets(t *testing.T) {
	s := newTestServer(nil)
	req := uploadRequest(t, "/api/import/sheets", "t.xlsx", templateBytes(t, core.PurposeBasicInfo, core.PurposeBreedMapping), nil)

	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Sheets []core.SheetStructure `json:"sheets"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Sheets) != 2 {
		t.Fatalf("sheets = %d, want 2", len(resp.Sheets))
	}
	if resp.Sheets[1].SuggestedPurpose != core.PurposeBreedMapping {
		t.Errorf("SuggestedPurpose = %q", resp.Sheets[1].SuggestedPurpose)
	}
}

func TestConfirm_ValidationFailure(t *testing.T) {
	s := newTestServer(unusedStore{})
	payload := `{"file_name":"w.xlsx","rows":[{"sheet":"W","purpose":"weight_record","row":2,"fields":{"EarNum":"A1","MeaDate":"2015-08-11","Weight":"heavy"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/import/confirm", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := do(t, s, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}

	body := decodeError(t, rec)
	if len(body.Details) != 1 {
		t.Fatalf("details = %+v", body.Details)
	}
	if body.Details[0].Field() != "Weight" || body.Details[0].Msg != "value is not a valid float" {
		t.Errorf("detail = %+v", body.Details[0])
	}
}

func TestConfirm_NoStore(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import/confirm", strings.NewReader(`{"rows":[{}]}`))

	rec := do(t, s, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestConfirm_InvalidJSON_HTMX(t *testing.T) {
	s := newTestServer(unusedStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/import/confirm", strings.NewReader(`{"rows":`))
	req.Header.Set("HX-Request", "true")

	rec := do(t, s, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), `class="alert alert-error"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// =============================================================================
// Components
// =============================================================================

func TestErrorAlert_EscapesAndListsFields(t *testing.T) {
	var buf bytes.Buffer
	body := core.ErrorBody{
		Error:       "<b>資料驗證失敗</b>",
		Code:        "VAL003",
		FieldErrors: map[string]string{"EarNum": "耳號為必填欄位"},
	}
	if err := ErrorAlert(body).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>") {
		t.Errorf("message not escaped: %s", out)
	}
	if !strings.Contains(out, `data-field="EarNum"`) {
		t.Errorf("field list missing: %s", out)
	}
}

func TestImportSummary(t *testing.T) {
	var buf bytes.Buffer
	res := &core.ImportResult{Imported: 2, Errors: []core.RowFailure{{Sheet: "W", Row: 4, Message: "資料重複"}}}
	if err := ImportSummary(res).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "alert-warning") || !strings.Contains(buf.String(), "<td>4</td>") {
		t.Errorf("summary = %s", buf.String())
	}
}
