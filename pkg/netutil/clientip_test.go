package netutil

import (
	"net/http"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trust      bool
		xff        string
		xRealIP    string
		remoteAddr string
		want       string
	}{
		{"trusted single XFF", true, "10.0.0.1", "", "192.168.1.1:4321", "10.0.0.1"},
		{"trusted XFF chain returns first", true, " 10.0.0.1 , 172.16.0.1", "", "192.168.1.1:4321", "10.0.0.1"},
		{"trusted X-Real-IP when no XFF", true, "", "10.0.0.5", "192.168.1.1:4321", "10.0.0.5"},
		{"trusted empty XFF entry falls through", true, " ,10.0.0.9", "10.0.0.5", "192.168.1.1:4321", "10.0.0.5"},
		{"untrusted ignores XFF", false, "10.0.0.1", "10.0.0.5", "192.168.1.1:4321", "192.168.1.1"},
		{"IPv4 port stripped", false, "", "", "127.0.0.1:8080", "127.0.0.1"},
		{"bracketed IPv6 port stripped", false, "", "", "[::1]:8080", "::1"},
		{"bare IPv6 unchanged", false, "", "", "::1", "::1"},
		{"no port unchanged", false, "", "", "10.1.1.1", "10.1.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				r.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if got := ClientIP(r, tt.trust); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
