// Package netutil holds request helpers shared by the HTTP server.
package netutil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address for request logs and audit context.
//
// When trustProxy is set, the first X-Forwarded-For entry wins, then
// X-Real-IP. Otherwise forwarding headers are ignored and RemoteAddr is
// used. The result never feeds an authorization decision.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	return stripPort(r.RemoteAddr)
}

// stripPort removes the port from host:port or [v6]:port. Bare IPv6
// addresses and hosts without a port pass through unchanged.
func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
