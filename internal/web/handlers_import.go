package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/herdimport/internal/core"
	"github.com/JonMunkholm/herdimport/internal/logging"
)

// handleInspectSheets returns the structure of every sheet of an uploaded
// workbook, for building an explicit mapping.
func (s *Server) handleInspectSheets(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	wb, err := s.readUpload(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sheets, err := core.InspectWorkbook(wb)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"file_name": wb.FileName, "sheets": sheets})
}

// handleAnalyze validates an uploaded workbook and returns the preview.
// Nothing is written.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	wb, err := s.readUpload(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts, err := parseAnalyzeOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger := logging.WithFields(r.Context(), "file", wb.FileName, "sheets", len(wb.Sheets))
	resp, err := s.service.Analyze(r.Context(), wb, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger.Info("workbook analyzed",
		"rows", len(resp.Data),
		"errors", len(resp.Errors),
		"warnings", len(resp.Warnings),
		"duration_ms", resp.ProcessingTimeMs,
	)
	writeJSON(w, resp)
}

// handleConfirm commits previewed rows. Rows that fail re-validation reject
// the request with 422; rows that fail while writing are reported in the
// result.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	var req core.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.respondError(w, r, fmt.Errorf("file too large: %w", err))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Import(ctx, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ImportSummary(res).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render import summary", "error", err)
		}
		return
	}
	writeJSON(w, res)
}

// handleHistory lists recent import batches.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.RecentBatches(r.Context(), parseIntParam(r, "limit", 20))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, batches)
}
