// Package identity extracts the authenticated caller from an access token.
//
// Token issuance and signature verification belong to the platform's identity
// service. The dispatcher receives tokens that were verified upstream, so
// ClaimsDecoder only parses the JWT payload (github.com/golang-jwt/jwt/v5,
// ParseUnverified), rejects expired tokens and maps the user claim to
// Identity.UserID. The Decoder interface lets a verifying implementation be
// dropped in without touching callers.
//
//	r.Use(identity.Middleware(identity.MiddlewareConfig{
//		Decoder: identity.NewClaimsDecoder(),
//	}))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		userID := identity.UserIDFromContext(r.Context())
//	}
package identity
