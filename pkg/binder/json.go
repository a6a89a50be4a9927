package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize caps request bodies read by JSON.
const DefaultMaxJSONSize = 1 << 20

// JSON decodes an application/json body into v. The body must hold exactly
// one JSON value, no larger than DefaultMaxJSONSize, with no unknown fields.
//
//	r.Post("/notifications", handler.Wrap(create,
//		handler.WithBinders(binder.JSON()),
//	))
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if err := checkJSONContentType(r.Header.Get("Content-Type")); err != nil {
			return err
		}

		body := &limitedReader{r: r.Body, n: DefaultMaxJSONSize}
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()

		err := dec.Decode(v)
		switch {
		case body.exceeded:
			return fmt.Errorf("%w: body exceeds %d bytes", ErrFailedToParseJSON, DefaultMaxJSONSize)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		case err != nil:
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		if dec.More() {
			return fmt.Errorf("%w: trailing data after JSON value", ErrFailedToParseJSON)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			if body.exceeded {
				return fmt.Errorf("%w: body exceeds %d bytes", ErrFailedToParseJSON, DefaultMaxJSONSize)
			}
			return fmt.Errorf("%w: trailing data after JSON value", ErrFailedToParseJSON)
		}
		return nil
	}
}

func checkJSONContentType(header string) error {
	if header == "" {
		return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: %q, expected application/json", ErrUnsupportedMediaType, header)
	}
	return nil
}

// limitedReader fails once more than n bytes have been read.
type limitedReader struct {
	r        io.Reader
	n        int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, errBodyTooLarge
	}
	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		l.exceeded = true
		return n, errBodyTooLarge
	}
	return n, err
}

var errBodyTooLarge = errors.New("body too large")
