// Package binder binds HTTP request data to Go structs.
//
// Each binder has the signature func(*http.Request, any) error and fills only
// the fields carrying its own tag, so several binders can run on one request
// struct:
//
//   - JSON(): request body, strict (unknown fields are rejected), 1MB limit
//   - Query(): `query:"name"` fields from the URL query string
//   - Path(extractor): `path:"name"` fields via a router lookup such as chi.URLParam
//
// Supported field types for Query and Path are the basic scalar kinds,
// pointers to them for optional values, and slices.
//
// # Error Handling
//
// Failures wrap one of:
//
//   - ErrUnsupportedMediaType: Content type doesn't match expected type
//   - ErrFailedToParseJSON: Failed to parse JSON request body
//   - ErrFailedToParseQuery: Failed to parse query parameters
//   - ErrFailedToParsePath: Failed to parse path parameters
//   - ErrMissingContentType: Missing Content-Type header
//
// IsBindError reports whether an error came from a binder; the HTTP layer
// answers those with 400 Bad Request.
package binder
