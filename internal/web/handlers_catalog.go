package web

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/herdimport/internal/core"
	"github.com/JonMunkholm/herdimport/internal/workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleListPurposes returns the purpose picker options.
func (s *Server) handleListPurposes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.ListPurposes())
}

// handleGetSchema returns the field catalog of one purpose.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := core.GetSchema(core.PurposeID(chi.URLParam(r, "purpose")))
	if err != nil {
		writeJSONStatus(w, http.StatusNotFound, core.ErrorBody{
			Error: core.MapError(err).Message,
			Code:  core.MapError(err).Code,
		})
		return
	}
	writeJSON(w, schema)
}

// handleDownloadTemplate writes a template workbook for one purpose, or for
// all of them when no purpose is given.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	var (
		purposes []core.PurposeID
		filename = "herd_import_template.xlsx"
	)
	if p := chi.URLParam(r, "purpose"); p != "" {
		purpose := core.PurposeID(p)
		if _, err := core.GetSchema(purpose); err != nil {
			s.respondError(w, r, err)
			return
		}
		purposes = append(purposes, purpose)
		filename = p + "_template.xlsx"
	}

	// Buffered so a failure can still be reported as an error response.
	var buf bytes.Buffer
	if err := workbook.WriteTemplate(&buf, purposes...); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// handleExport downloads every stored animal, event and measurement as a
// workbook. The animal sheet re-imports as basic info in default mode.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	wb, err := s.service.Export(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf, wb); err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := "herd_export_" + time.Now().Format("20060102_150405") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	_, _ = buf.WriteTo(w)
}
