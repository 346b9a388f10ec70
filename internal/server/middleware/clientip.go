package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIdentity returns the host part of r.RemoteAddr. When the server
// trusts proxy headers, chi's RealIP has already rewritten RemoteAddr.
func ClientIdentity(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
