// Package http builds echo contexts and requests for handler tests.
package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
)

// RequestOption modifies a request before it is handled.
type RequestOption func(*http.Request) *http.Request

func WithContext(ctx context.Context) RequestOption {
	return func(r *http.Request) *http.Request { return r.WithContext(ctx) }
}

// WithHeader adds one or more values of the header key.
func WithHeader(key string, values ...string) RequestOption {
	return func(r *http.Request) *http.Request {
		for _, v := range values {
			r.Header.Add(key, v)
		}
		return r
	}
}

func newRequest(method string, target string, body io.Reader, opts []RequestOption) *http.Request {
	r := httptest.NewRequest(method, target, body)
	for _, o := range opts {
		r = o(r)
	}
	return r
}

// Get builds an echo.Context for a GET request to target, without routing.
func Get(e *echo.Echo, target string, opts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return e.NewContext(newRequest(http.MethodGet, target, nil, opts), rec), rec
}

// Serve sends a request through the router of e, so that route parameters are resolved.
func Serve(e *echo.Echo, method string, target string, body io.Reader, opts ...RequestOption) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, newRequest(method, target, body, opts))
	return rec
}
