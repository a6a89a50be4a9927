package handler

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/dispatch/pkg/identity"
	"github.com/dmitrymomot/dispatch/pkg/requestid"
)

// Context is the per-request value handed to a HandlerFunc. It is a
// context.Context backed by the request's own context.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// RequestID is the id assigned by requestid.Middleware, or "".
	RequestID() string
	// UserID is the authenticated caller, or "" on public routes.
	UserID() string
}

// NewContext creates a new Context from HTTP request and response writer.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return &httpContext{Context: r.Context(), w: w, r: r}
}

type httpContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

func (c *httpContext) Request() *http.Request              { return c.r }
func (c *httpContext) ResponseWriter() http.ResponseWriter { return c.w }
func (c *httpContext) RequestID() string                   { return requestid.FromContext(c.r.Context()) }
func (c *httpContext) UserID() string                      { return identity.UserIDFromContext(c.r.Context()) }
