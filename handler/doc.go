// Package handler provides typed HTTP handlers that render JSON envelopes.
//
// A HandlerFunc receives a Context and a request value that binders filled
// from the HTTP request, and returns a Response:
//
//	type ReadRequest struct {
//		ID string `path:"id"`
//	}
//
//	func markRead(ctx handler.Context, req ReadRequest) handler.Response {
//		n, err := svc.MarkRead(ctx, req.ID)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(n)
//	}
//
//	r.Put("/api/notifications/{id}/read", handler.Wrap(markRead,
//		handler.WithBinders(binder.Path(chi.URLParam)),
//		handler.WithErrorHandler(errHandler),
//	))
//
// # Response envelope
//
// Every JSON body has the shape
//
//	{"data": ..., "meta": {...}, "error": {"code": "...", "message": "...", "details": {...}}}
//
// with empty members omitted.
//
// # Errors
//
// HTTPError carries a status and a machine-readable code; ValidationError
// carries per-field messages and renders as 422 validation_error. Anything
// else becomes 500 internal_error. NewErrorHandler logs the failure and
// writes the envelope; an ErrorMapper lets callers translate their own
// sentinel errors first.
package handler
