package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as localized messages with action suggestions
//   - Formatted as JSON for API clients or as an alert fragment for HTMX
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), optionally with an explicit status
//  3. Error is mapped via core.MapError to a localized message and code
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered in the format the client asked for

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/herdimport/internal/core"
	"github.com/JonMunkholm/herdimport/internal/logging"
	"github.com/JonMunkholm/herdimport/internal/workbook"
)

var (
	errNoFile      = errors.New("no file provided")
	errInvalidForm = errors.New("invalid form")
	errBadMapping  = errors.New("invalid mapping config")
	errInvalidBody = errors.New("invalid request body")
)

// statusFor picks the HTTP status of an error.
func statusFor(err error) int {
	var (
		mbe *http.MaxBytesError
		vf  *core.ValidationFailure
	)
	switch {
	case errors.As(err, &vf):
		return http.StatusUnprocessableEntity
	case errors.As(err, &mbe),
		strings.Contains(err.Error(), "file too large"),
		strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyOperations):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrEmptyWorkbook),
		errors.Is(err, core.ErrUnknownPurpose),
		errors.Is(err, workbook.ErrUnsupportedType),
		errors.Is(err, errNoFile),
		errors.Is(err, errInvalidForm),
		errors.Is(err, errBadMapping),
		errors.Is(err, errInvalidBody),
		strings.Contains(err.Error(), "invalid workbook"),
		strings.Contains(err.Error(), "invalid mapping config"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError handles error responses with localized messages.
// It logs the technical error server-side and returns JSON or, for HTMX
// requests, an alert fragment.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	body := core.ErrorBody{
		Error:  userMsg.Message,
		Code:   userMsg.Code,
		Action: userMsg.Action,
	}
	var vf *core.ValidationFailure
	if errors.As(err, &vf) {
		body = vf.Body()
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", body.Code,
	)

	if statusCode == http.StatusServiceUnavailable && errors.Is(err, core.ErrTooManyOperations) {
		w.Header().Set("Retry-After", "30")
	}

	if isHTMX(r) {
		s.renderErrorPartial(w, r, body, statusCode)
		return
	}
	writeJSONStatus(w, statusCode, body)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func (s *Server) renderErrorPartial(w http.ResponseWriter, r *http.Request, body core.ErrorBody, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := ErrorAlert(body).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error alert", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
