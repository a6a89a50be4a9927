package binder

import "net/http"

// Path creates a path parameter binder using extractor to look up each
// `path:"name"` field.
//
// Example with chi:
//
//	type ReadRequest struct {
//		ID string `path:"id"`
//	}
//
//	r.Put("/api/notifications/{id}/read", handler.Wrap(markRead,
//		handler.WithBinders(binder.Path(chi.URLParam)),
//	))
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return ErrFailedToParsePath
		}
		lookup := func(name string) []string {
			if value := extractor(r, name); value != "" {
				return []string{value}
			}
			return nil
		}
		return bindToStruct(v, "path", lookup, ErrFailedToParsePath)
	}
}
