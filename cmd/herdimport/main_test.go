package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/herdimport/internal/core"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestParseMapping(t *testing.T) {
	cfg, err := parseMapping([]byte(`
sheets:
  體重:
    purpose: weight_record
    columns:
      EarNum: 耳號
      Weight: 體重
  備註:
    purpose: ignore
`))
	require.NoError(t, err)
	assert.Equal(t, core.PurposeWeightRecord, cfg.Sheets["體重"].Purpose)
	assert.Equal(t, "耳號", cfg.Sheets["體重"].Columns["EarNum"])
	assert.Equal(t, core.PurposeIgnore, cfg.Sheets["備註"].Purpose)

	_, err = parseMapping([]byte("sheets:\n  A:\n    purpose: bogus\n"))
	assert.ErrorIs(t, err, core.ErrUnknownPurpose)

	_, err = parseMapping([]byte("sheets: [unclosed"))
	assert.ErrorContains(t, err, "invalid mapping config")
}

func TestAnalyzeOptions_DefaultWithoutFile(t *testing.T) {
	opts, err := analyzeOptions("")
	require.NoError(t, err)
	assert.Equal(t, core.ModeDefault, opts.Mode)
}

func TestTemplateThenCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.xlsx")

	out, _, err := run(t, "", "template", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	out, _, err = run(t, "", "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "weight_record")
}

func TestCheck_ExplicitMappingErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.xlsx")
	_, _, err := run(t, "", "template", "weight_record", "-o", path)
	require.NoError(t, err)

	mapping := filepath.Join(dir, "m.yaml")
	require.NoError(t, os.WriteFile(mapping, []byte(`
sheets:
  weight_record:
    purpose: weight_record
    columns:
      EarNum: EarNum
      MeaDate: MeaDate
`), 0o644))

	out, _, err := run(t, "", "check", path, "--mapping", mapping)
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "[Weight]")
}

// fakeServer answers analyze with one valid row and counts confirms.
func fakeServer(t *testing.T, confirms *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/import/analyze", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k1", r.Header.Get("X-API-Key"))
		json.NewEncoder(w).Encode(core.AnalyzeResponse{
			Data: []core.PreviewRow{{
				Sheet:   "weight_record",
				Purpose: core.PurposeWeightRecord,
				Row:     2,
				Fields:  map[string]string{"EarNum": "A1", "MeaDate": "2015-08-11", "Weight": "27.2"},
			}},
			Sheets:  []core.SheetSummary{{Name: "weight_record", Purpose: core.PurposeWeightRecord, Rows: 1}},
			Summary: core.PreviewSummary{TotalRows: 1},
		})
	})
	mux.HandleFunc("POST /api/import/confirm", func(w http.ResponseWriter, r *http.Request) {
		confirms.Add(1)
		json.NewEncoder(w).Encode(core.ImportResult{Success: true, Imported: 1, BatchID: "b-1"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestImport_Yes(t *testing.T) {
	var confirms atomic.Int32
	srv := fakeServer(t, &confirms)
	path := filepath.Join(t.TempDir(), "w.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0o644))

	out, _, err := run(t, "", "import", path, "--yes", "--server", srv.URL, "--api-key", "k1")
	require.NoError(t, err)
	assert.Contains(t, out, "已匯入 1 筆")
	assert.Contains(t, out, "b-1")
	assert.EqualValues(t, 1, confirms.Load())
}

func TestImport_PromptDeclined(t *testing.T) {
	var confirms atomic.Int32
	srv := fakeServer(t, &confirms)
	path := filepath.Join(t.TempDir(), "w.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0o644))

	out, _, err := run(t, "n\n", "import", path, "--server", srv.URL, "--api-key", "k1")
	require.NoError(t, err)
	assert.Contains(t, out, "已取消")
	assert.Zero(t, confirms.Load())
}

func TestImport_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	path := filepath.Join(t.TempDir(), "w.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0o644))

	_, errOut, err := run(t, "", "import", path, "--yes", "--server", url)
	assert.ErrorIs(t, err, errImportFailed)
	assert.Contains(t, errOut, core.StatusMessage(0))
}

func TestExport_WritesFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/export", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k1", r.Header.Get("X-API-Key"))
		w.Write([]byte("xlsx"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "herd.xlsx")
	out, _, err := run(t, "", "export", "-o", path, "--server", srv.URL, "--api-key", "k1")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(data))
}

func TestConfirmPrompt(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirmPrompt(strings.NewReader("Y\n"), &out, 3))
	assert.True(t, confirmPrompt(strings.NewReader("yes"), &out, 3))
	assert.False(t, confirmPrompt(strings.NewReader("\n"), &out, 3))
	assert.False(t, confirmPrompt(strings.NewReader(""), &out, 3))
	assert.Contains(t, out.String(), "匯入 3 筆資料")
}
