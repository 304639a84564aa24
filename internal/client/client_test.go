package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/herdimport/internal/core"
	"github.com/JonMunkholm/herdimport/internal/session"
)

func TestClient_AnalyzeSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/import/analyze", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "false", r.FormValue("is_default_mode"))

		cfg, err := core.ParseMappingConfig([]byte(r.FormValue("mapping_config")))
		require.NoError(t, err)
		assert.Equal(t, core.PurposeWeightRecord, cfg.Sheets["體重"].Purpose)

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "herd.xlsx", hdr.Filename)
		assert.Equal(t, "xlsx-bytes", string(data))

		_ = json.NewEncoder(w).Encode(core.AnalyzeResponse{
			Data: []core.PreviewRow{{Sheet: "體重", Purpose: core.PurposeWeightRecord, Row: 2}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithAPIKey("secret"))
	resp, err := c.Analyze(context.Background(), session.Upload{
		Name: "herd.xlsx",
		Data: []byte("xlsx-bytes"),
		Mode: core.ModeExplicit,
		Config: core.MappingConfig{Sheets: map[string]core.SheetMapping{
			"體重": {Purpose: core.PurposeWeightRecord, Columns: core.FieldMappingConfig{"EarNum": "耳號"}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Data[0].Row)
}

func TestClient_ConfirmResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req core.ConfirmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "herd.xlsx", req.FileName)

		_ = json.NewEncoder(w).Encode(core.ImportResult{
			Success:  true,
			Imported: len(req.Rows) - 1,
			Errors:   []core.RowFailure{{Row: 3, Message: "資料重複", Code: "DB001"}},
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL).Confirm(context.Background(), core.ConfirmRequest{
		FileName: "herd.xlsx",
		Rows:     make([]core.PreviewRow, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.True(t, res.Partial())
}

func TestClient_StructuredServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"資料驗證失敗","code":"VAL003","details":[{"loc":["body","rows",0,"Weight"],"msg":"value is not a valid float"}]}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Confirm(context.Background(), core.ConfirmRequest{Rows: make([]core.PreviewRow, 1)})

	var se *core.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Status)
	assert.True(t, core.IsStructuredValidationError(err))

	tr := core.Translate(err)
	assert.Equal(t, "體重必須是數字", tr.Fields["Weight"])
}

func TestClient_UndecodableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Purposes(context.Background())

	var te *core.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.Status)
	assert.False(t, te.NoResponse())
	assert.Equal(t, "服務暫時不可用", core.Translate(err).General)
}

func TestClient_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Purposes(context.Background())

	var te *core.TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.NoResponse())
	assert.Equal(t, core.StatusMessage(0), core.Translate(err).General)
}

func TestClient_Purposes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(core.ListPurposes())
	}))
	defer srv.Close()

	got, err := New(srv.URL).Purposes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.ListPurposes(), got)
}

func TestClient_Export(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/export", r.URL.Path)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = io.WriteString(w, "xlsx bytes")
	}))
	defer srv.Close()

	var buf bytes.Buffer
	require.NoError(t, New(srv.URL).Export(context.Background(), &buf))
	assert.Equal(t, "xlsx bytes", buf.String())
}

func TestClient_ExportNoStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(core.ErrorBody{Error: "資料庫未連線", Code: "SYS002"})
	}))
	defer srv.Close()

	err := New(srv.URL).Export(context.Background(), &bytes.Buffer{})
	var se *core.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
}
