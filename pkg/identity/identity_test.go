package identity_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/identity"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return token
}

func TestClaimsDecoder_Decode(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	dec := identity.NewClaimsDecoder(identity.WithClock(func() time.Time { return now }))

	tests := []struct {
		name    string
		claims  jwt.MapClaims
		raw     string
		want    identity.Identity
		wantErr error
	}{
		{
			name:   "userId claim",
			claims: jwt.MapClaims{"userId": "42", "email": "bob@example.com", "roles": []any{"admin", "user"}},
			want:   identity.Identity{UserID: "42", Email: "bob@example.com", Roles: []string{"admin", "user"}},
		},
		{
			name:   "numeric user_id claim",
			claims: jwt.MapClaims{"user_id": 7},
			want:   identity.Identity{UserID: "7"},
		},
		{
			name:   "subject fallback with single role",
			claims: jwt.MapClaims{"sub": "abc", "role": "USER", "exp": now.Add(time.Hour).Unix()},
			want:   identity.Identity{UserID: "abc", Roles: []string{"USER"}, ExpiresAt: now.Add(time.Hour)},
		},
		{
			name:    "expired",
			claims:  jwt.MapClaims{"sub": "abc", "exp": now.Add(-time.Minute).Unix()},
			wantErr: identity.ErrExpiredToken,
		},
		{
			name:    "no user claim",
			claims:  jwt.MapClaims{"email": "x@example.com"},
			wantErr: identity.ErrMissingSubject,
		},
		{
			name:    "garbage",
			raw:     "not.a.jwt",
			wantErr: identity.ErrInvalidToken,
		},
		{
			name:    "empty",
			raw:     " ",
			wantErr: identity.ErrMissingToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := tt.raw
			if tt.claims != nil {
				raw = sign(t, tt.claims)
			}

			got, err := dec.Decode(raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.UserID, got.UserID)
			assert.Equal(t, tt.want.Email, got.Email)
			assert.Equal(t, tt.want.Roles, got.Roles)
			assert.True(t, tt.want.ExpiresAt.Equal(got.ExpiresAt))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	dec := identity.NewClaimsDecoder()
	var seen string
	h := identity.Middleware(identity.MiddlewareConfig{Decoder: dec})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = identity.UserIDFromContext(r.Context())
		}),
	)

	t.Run("stores identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": "42"}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", seen)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestExtractors(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	extract := identity.FirstToken(identity.BearerToken, identity.QueryToken("token"))
	assert.Equal(t, "from-query", extract(req))

	req.Header.Set("Authorization", "bearer from-header")
	assert.Equal(t, "from-header", extract(req))
}

func TestUserIDFromContext_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, identity.UserIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
