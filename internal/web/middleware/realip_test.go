package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	trusted := []string{"10.0.0.0/8", "192.168.1.10", "not-an-ip", ""}

	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{"untrusted ignores headers", "203.0.113.5:4000", "1.2.3.4", "", "203.0.113.5:4000"},
		{"trusted cidr uses X-Real-IP", "10.1.2.3:4000", "1.2.3.4", "5.6.7.8", "1.2.3.4"},
		{"trusted single ip", "192.168.1.10:80", "1.2.3.4", "", "1.2.3.4"},
		{"first forwarded hop", "10.1.2.3:4000", "", "5.6.7.8, 10.1.2.3", "5.6.7.8"},
		{"invalid X-Real-IP keeps remote", "10.1.2.3:4000", "garbage", "5.6.7.8", "10.1.2.3:4000"},
		{"no headers keeps remote", "10.1.2.3:4000", "", "", "10.1.2.3:4000"},
		{"ipv6 client", "10.1.2.3:4000", "2001:db8::1", "", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrusted(t *testing.T) {
	got := parseTrusted([]string{"10.0.0.0/8", " 127.0.0.1 ", "::1", "bogus"})
	if len(got) != 3 {
		t.Fatalf("parsed %d prefixes, want 3: %v", len(got), got)
	}
	if got[1].Bits() != 32 || got[2].Bits() != 128 {
		t.Errorf("single addresses should be full-length prefixes: %v", got)
	}
}
