package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/binder"
)

type createRequest struct {
	UserID   string         `json:"userId"`
	Title    string         `json:"title"`
	Metadata map[string]any `json:"metadata"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     error
		want        createRequest
	}{
		{
			name:        "valid",
			contentType: "application/json; charset=utf-8",
			body:        `{"userId":"1","title":"hi","metadata":{"k":"v"}}`,
			want:        createRequest{UserID: "1", Title: "hi", Metadata: map[string]any{"k": "v"}},
		},
		{name: "missing content type", body: `{}`, wantErr: binder.ErrMissingContentType},
		{name: "wrong content type", contentType: "text/plain", body: `{}`, wantErr: binder.ErrUnsupportedMediaType},
		{name: "empty body", contentType: "application/json", body: ``, wantErr: binder.ErrFailedToParseJSON},
		{name: "unknown field", contentType: "application/json", body: `{"nope":1}`, wantErr: binder.ErrFailedToParseJSON},
		{name: "trailing data", contentType: "application/json", body: `{"userId":"1"}{"userId":"2"}`, wantErr: binder.ErrFailedToParseJSON},
		{name: "wrong type", contentType: "application/json", body: `{"userId":1}`, wantErr: binder.ErrFailedToParseJSON},
		{name: "too large", contentType: "application/json", body: `{"title":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`, wantErr: binder.ErrFailedToParseJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			var got createRequest
			err := binder.JSON()(req, &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, binder.IsBindError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type listRequest struct {
	UserID string   `path:"userId"`
	Limit  int      `query:"limit"`
	Unread *bool    `query:"unread"`
	Types  []string `query:"type"`
	Skip   string   `query:"-"`
}

func TestQueryAndPath(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?limit=10&unread=yes&type=welcome,system_alert&Skip=x", nil)
	extractor := func(_ *http.Request, name string) string {
		if name == "userId" {
			return "42"
		}
		return ""
	}

	var got listRequest
	require.NoError(t, binder.Path(extractor)(req, &got))
	require.NoError(t, binder.Query()(req, &got))

	assert.Equal(t, "42", got.UserID)
	assert.Equal(t, 10, got.Limit)
	require.NotNil(t, got.Unread)
	assert.True(t, *got.Unread)
	assert.Equal(t, []string{"welcome", "system_alert"}, got.Types)
	assert.Empty(t, got.Skip)
}

func TestQuery_InvalidValue(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?limit=ten", nil)
	var got listRequest
	err := binder.Query()(req, &got)
	assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
	assert.True(t, binder.IsBindError(err))
}

func TestPath_NilExtractor(t *testing.T) {
	t.Parallel()

	var got listRequest
	err := binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &got)
	assert.ErrorIs(t, err, binder.ErrFailedToParsePath)
}

func TestBindToNonStruct(t *testing.T) {
	t.Parallel()

	var n int
	err := binder.Query()(httptest.NewRequest(http.MethodGet, "/?n=1", nil), &n)
	assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
}

func TestQuery_IgnoresUntaggedFields(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?userId=intruder&limit=3", nil)
	got := listRequest{UserID: "42"}
	require.NoError(t, binder.Query()(req, &got))

	assert.Equal(t, "42", got.UserID, "path field is not overwritten from the query")
	assert.Equal(t, 3, got.Limit)
}
