package web

// handlers_common.go contains request parsing helpers shared by handlers.

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/JonMunkholm/herdimport/internal/core"
	"github.com/JonMunkholm/herdimport/internal/workbook"
)

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// readUpload parses the multipart form and opens the uploaded workbook.
// Caller must have applied the body size limit.
func (s *Server) readUpload(r *http.Request) (*core.Workbook, error) {
	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, fmt.Errorf("file too large: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	return workbook.Open(file, header.Filename)
}

// parseAnalyzeOptions reads is_default_mode and mapping_config. Missing
// is_default_mode selects default mode. The earlier upload form treated a
// missing flag as false and mapped explicitly; clients relying on that must
// now send is_default_mode=false with their mapping_config.
func parseAnalyzeOptions(r *http.Request) (core.AnalyzeOptions, error) {
	opts := core.AnalyzeOptions{Mode: core.ModeDefault}

	if v := r.FormValue("is_default_mode"); v != "" {
		isDefault, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: is_default_mode=%q", errBadMapping, v)
		}
		if !isDefault {
			opts.Mode = core.ModeExplicit
		}
	}

	if opts.Mode == core.ModeExplicit {
		raw := r.FormValue("mapping_config")
		if raw == "" {
			return opts, fmt.Errorf("%w: mapping_config is required in explicit mode", errBadMapping)
		}
		cfg, err := core.ParseMappingConfig([]byte(raw))
		if err != nil {
			return opts, err
		}
		opts.Config = cfg
	}

	return opts, nil
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
