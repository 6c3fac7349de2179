// Package httputil provides small helpers for responses the gateway writes
// itself rather than relaying from an upstream.
package httputil

import (
	"fmt"
	"net/http"
)

// WriteText writes a plain text response with the given status code.
func WriteText(w http.ResponseWriter, status int, format string, args ...any) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, format, args...)
}

// NotFound writes the gateway's 404 body, "Cannot <METHOD> <path>".
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusNotFound, "Cannot %s %s", r.Method, r.URL.RequestURI())
}
