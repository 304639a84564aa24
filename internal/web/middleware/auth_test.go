package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/herdimport/internal/config"
	"github.com/JonMunkholm/herdimport/internal/core"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SecurityConfig
		key      string
		wantCode int
		wantBody string
	}{
		{
			name:     "auth disabled",
			cfg:      config.SecurityConfig{RequireAPIKey: false},
			wantCode: http.StatusOK,
		},
		{
			name:     "valid key",
			cfg:      config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"one", "two"}},
			key:      "two",
			wantCode: http.StatusOK,
		},
		{
			name:     "missing key",
			cfg:      config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"one"}},
			wantCode: http.StatusUnauthorized,
			wantBody: "AUTH_MISSING_KEY",
		},
		{
			name:     "invalid key",
			cfg:      config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"one"}},
			key:      "wrong",
			wantCode: http.StatusForbidden,
			wantBody: "AUTH_INVALID_KEY",
		},
		{
			name:     "no keys configured",
			cfg:      config.SecurityConfig{RequireAPIKey: true},
			key:      "anything",
			wantCode: http.StatusForbidden,
			wantBody: "AUTH_INVALID_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			h := APIKeyAuth(&cfg)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/purposes", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody == "" {
				return
			}

			var body core.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not an error document: %v", err)
			}
			if body.Code != tt.wantBody {
				t.Errorf("code = %q, want %q", body.Code, tt.wantBody)
			}
			if body.Error != core.StatusMessage(tt.wantCode) {
				t.Errorf("error = %q, want %q", body.Error, core.StatusMessage(tt.wantCode))
			}
		})
	}
}
