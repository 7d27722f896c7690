package server

import (
	"net"
	"net/http"
	"strings"
)

// clientIP resolves the originating client address: first X-Forwarded-For
// hop, then X-Real-IP, then the direct peer. Returns nil when nothing
// resolves, so the stored column is NULL rather than empty.
func clientIP(r *http.Request) *string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return &first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return &xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return nil
		}
		addr := r.RemoteAddr
		return &addr
	}
	return &host
}
