package ratelimit

import (
	"net/http"

	"github.com/dmitrymomot/dispatch/pkg/clientip"
	"github.com/dmitrymomot/dispatch/pkg/identity"
)

// KeyFunc extracts the client id a request is counted against.
// An empty key skips limiting for that request.
type KeyFunc func(*http.Request) string

// ByIP keys requests by the resolved client address.
func ByIP() KeyFunc {
	return func(r *http.Request) string {
		if ip := clientip.GetIP(r); ip != "" {
			return "ip:" + ip
		}
		return ""
	}
}

// ByIdentity keys requests by the authenticated user id.
func ByIdentity() KeyFunc {
	return func(r *http.Request) string {
		if id := identity.UserIDFromContext(r.Context()); id != "" {
			return "user:" + id
		}
		return ""
	}
}

// FirstOf returns the first non-empty key produced by fns.
func FirstOf(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		for _, fn := range fns {
			if key := fn(r); key != "" {
				return key
			}
		}
		return ""
	}
}
