// Package clientip resolves the originating client address of a request
// that may have passed through a CDN or reverse proxy.
package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Headers lists the proxy headers GetIP trusts, highest priority first.
var Headers = []string{"CF-Connecting-IP", "DO-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// GetIP returns the canonical client address or "" when neither the
// proxy headers nor RemoteAddr hold one. Comma separated headers yield
// their first valid entry.
func GetIP(r *http.Request) string {
	for _, name := range Headers {
		for _, value := range r.Header.Values(name) {
			for field := range strings.SplitSeq(value, ",") {
				if addr, ok := parse(field); ok {
					return addr.String()
				}
			}
		}
	}

	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if addr, ok := parse(remote); ok {
		return addr.String()
	}
	return ""
}

func parse(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap().WithZone(""), true
}
