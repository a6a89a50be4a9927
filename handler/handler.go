package handler

import "net/http"

// HandlerFunc handles a request whose input was already bound into R.
type HandlerFunc[R any] func(ctx Context, req R) Response

// Response writes itself to the client. A non-nil error from Render is
// passed to the route's ErrorHandler.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Binder fills v from part of the request.
type Binder func(r *http.Request, v any) error

// ErrorHandler writes the response for a failed request.
type ErrorHandler func(ctx Context, err error)

// Decorator wraps a HandlerFunc.
type Decorator[R any] func(next HandlerFunc[R]) HandlerFunc[R]

// Option configures a route built by Wrap.
type Option func(*route)

type route struct {
	binders []Binder
	onError ErrorHandler
}

// WithBinders appends binders. They run in order against the same value,
// each one reading only the fields tagged for it.
func WithBinders(binders ...Binder) Option {
	return func(rt *route) {
		for _, b := range binders {
			if b != nil {
				rt.binders = append(rt.binders, b)
			}
		}
	}
}

// WithErrorHandler replaces the default handler, which renders JSONError
// without logging.
func WithErrorHandler(h ErrorHandler) Option {
	return func(rt *route) {
		if h != nil {
			rt.onError = h
		}
	}
}

// Decorate applies decorators to h, the first one outermost.
func Decorate[R any](h HandlerFunc[R], decorators ...Decorator[R]) HandlerFunc[R] {
	for i := len(decorators) - 1; i >= 0; i-- {
		h = decorators[i](h)
	}
	return h
}

// Wrap adapts h to net/http.
//
//	r.Put("/notifications/{id}/read", handler.Wrap(markRead,
//		handler.WithBinders(binder.Path(chi.URLParam)),
//		handler.WithErrorHandler(onError),
//	))
func Wrap[R any](h HandlerFunc[R], opts ...Option) http.HandlerFunc {
	rt := &route{onError: renderError}
	for _, opt := range opts {
		opt(rt)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range rt.binders {
			if err := bind(r, &req); err != nil {
				rt.onError(ctx, err)
				return
			}
		}

		resp := h(ctx, req)
		if resp == nil {
			rt.onError(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			rt.onError(ctx, err)
		}
	}
}

func renderError(ctx Context, err error) {
	_ = JSONError(err).Render(ctx.ResponseWriter(), ctx.Request())
}

// Error defers err to the route's ErrorHandler, so it is logged and mapped
// like a binding failure.
func Error(err error) Response {
	return errorResponse{err}
}

type errorResponse struct{ err error }

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error { return e.err }
