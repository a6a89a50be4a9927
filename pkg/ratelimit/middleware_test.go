package ratelimit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/identity"
	"github.com/dmitrymomot/dispatch/pkg/ratelimit"
)

type failingStore struct{}

func (failingStore) Hit(context.Context, string, int, time.Duration, time.Time) (ratelimit.Entry, bool, error) {
	return ratelimit.Entry{}, false, errors.New("store down")
}

func (failingStore) Reset(context.Context, string) error { return nil }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	t.Parallel()

	l, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.WithLimit(2))
	require.NoError(t, err)
	h := ratelimit.Middleware(l, ratelimit.ByIP())(okHandler())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, do().Code)

	rejected := do()
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.NotEmpty(t, rejected.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rejected.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body.Error.Code)
}

func TestMiddleware_FailsOpen(t *testing.T) {
	t.Parallel()

	l, err := ratelimit.New(failingStore{})
	require.NoError(t, err)
	h := ratelimit.Middleware(l, ratelimit.ByIP())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_CustomRejection(t *testing.T) {
	t.Parallel()

	l, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.WithLimit(1))
	require.NoError(t, err)
	h := ratelimit.Middleware(l, ratelimit.ByIP(),
		ratelimit.WithOnLimitReached(func(w http.ResponseWriter, _ *http.Request, _ ratelimit.Result) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}),
	)(okHandler())

	for _, want := range []int{http.StatusOK, http.StatusServiceUnavailable} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, want, rec.Code)
	}
}

func TestKeyFuncs(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"

	key := ratelimit.FirstOf(ratelimit.ByIdentity(), ratelimit.ByIP())
	assert.Equal(t, "ip:192.0.2.7", key(req))

	req = req.WithContext(identity.WithContext(req.Context(), identity.Identity{UserID: "42"}))
	assert.Equal(t, "user:42", key(req))

	assert.Empty(t, ratelimit.FirstOf()(req))
}
