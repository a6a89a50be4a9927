package identity

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller as described by an already-verified access token.
type Identity struct {
	UserID    string
	Email     string
	Roles     []string
	ExpiresAt time.Time
}

// Decoder turns a raw access token into an Identity.
type Decoder interface {
	Decode(token string) (Identity, error)
}

// ClaimsDecoder reads JWT claims without checking the signature.
// Tokens reach the dispatcher through a gateway that has verified them already;
// the decoder only extracts who the caller is and rejects expired tokens.
type ClaimsDecoder struct {
	parser     *jwt.Parser
	userClaims []string
	now        func() time.Time
}

// DecoderOption configures a ClaimsDecoder.
type DecoderOption func(*ClaimsDecoder)

// WithUserClaims sets the claim names searched, in order, for the user id.
func WithUserClaims(names ...string) DecoderOption {
	return func(d *ClaimsDecoder) {
		if len(names) > 0 {
			d.userClaims = names
		}
	}
}

func WithClock(now func() time.Time) DecoderOption {
	return func(d *ClaimsDecoder) {
		if now != nil {
			d.now = now
		}
	}
}

func NewClaimsDecoder(opts ...DecoderOption) *ClaimsDecoder {
	d := &ClaimsDecoder{
		parser:     jwt.NewParser(),
		userClaims: []string{"userId", "user_id", "sub"},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *ClaimsDecoder) Decode(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, ErrInvalidToken
	}

	var id Identity
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if !d.now().Before(exp.Time) {
			return Identity{}, ErrExpiredToken
		}
		id.ExpiresAt = exp.Time
	}

	for _, name := range d.userClaims {
		if v := claimString(claims[name]); v != "" {
			id.UserID = v
			break
		}
	}
	if id.UserID == "" {
		return Identity{}, ErrMissingSubject
	}

	id.Email = claimString(claims["email"])
	switch roles := claims["roles"].(type) {
	case []any:
		for _, r := range roles {
			if s := claimString(r); s != "" {
				id.Roles = append(id.Roles, s)
			}
		}
	case string:
		id.Roles = []string{roles}
	}
	if role := claimString(claims["role"]); role != "" && len(id.Roles) == 0 {
		id.Roles = []string{role}
	}

	return id, nil
}

// claimString accepts string and numeric claims; JSON numbers decode as float64.
func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}
