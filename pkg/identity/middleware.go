package identity

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc pulls a raw token out of a request.
type TokenExtractorFunc func(r *http.Request) string

// BearerToken reads "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// QueryToken reads the token from a query parameter. Browsers cannot set
// headers on websocket or EventSource requests, so realtime endpoints accept it.
func QueryToken(param string) TokenExtractorFunc {
	return func(r *http.Request) string {
		return r.URL.Query().Get(param)
	}
}

// FirstToken tries each extractor in order.
func FirstToken(extractors ...TokenExtractorFunc) TokenExtractorFunc {
	return func(r *http.Request) string {
		for _, ex := range extractors {
			if t := ex(r); t != "" {
				return t
			}
		}
		return ""
	}
}

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	Decoder   Decoder
	Extractor TokenExtractorFunc                                      // Defaults to BearerToken.
	OnError   func(w http.ResponseWriter, r *http.Request, err error) // Defaults to a plain 401.
}

// Middleware decodes the caller's identity and stores it in the request context.
// Requests without a usable token are rejected through OnError.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Decoder == nil {
		panic("identity.Middleware: decoder is required")
	}
	if cfg.Extractor == nil {
		cfg.Extractor = BearerToken
	}
	if cfg.OnError == nil {
		cfg.OnError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cfg.Decoder.Decode(cfg.Extractor(r))
			if err != nil {
				cfg.OnError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}
