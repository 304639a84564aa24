package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/herdimport/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so import
// batches record who submitted them. RemoteAddr has already been rewritten
// by TrustedRealIP; a port, if any, is dropped.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return core.WithOrigin(ctx, core.Origin{IP: ip, UserAgent: r.UserAgent()})
}
