package proxy

import (
	"net/http"
	"sync/atomic"
)

// tag is a correlation id attached to one side of an exchange.
type tag struct {
	id  int
	set bool
}

// Exchange is one client request and the writer for its response, plus the
// correlation tags the registry stamps when the request is forwarded.
type Exchange struct {
	Request *http.Request
	Writer  http.ResponseWriter

	requestTag  tag
	responseTag tag
	tracker     *headerTracker
}

// NewExchange wraps w so that the exchange knows whether response headers
// have been sent.
func NewExchange(w http.ResponseWriter, r *http.Request) *Exchange {
	tw := &headerTracker{ResponseWriter: w}
	return &Exchange{Request: r, Writer: tw, tracker: tw}
}

func (e *Exchange) stamp(id int) {
	e.requestTag = tag{id: id, set: true}
	e.responseTag = tag{id: id, set: true}
}

// correlated returns the id carried by the exchange when both tags are set
// and agree.
func (e *Exchange) correlated() (int, bool) {
	if !e.requestTag.set || !e.responseTag.set || e.requestTag.id != e.responseTag.id {
		return 0, false
	}
	return e.requestTag.id, true
}

// HeadersSent reports whether a final status line has been written.
func (e *Exchange) HeadersSent() bool {
	return e.tracker != nil && e.tracker.sent.Load()
}

// headerTracker records whether the response header has been written.
type headerTracker struct {
	http.ResponseWriter
	sent atomic.Bool
}

func (w *headerTracker) WriteHeader(code int) {
	// 1xx other than 101 may be followed by the real status.
	if code >= 200 || code == http.StatusSwitchingProtocols {
		w.sent.Store(true)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerTracker) Write(b []byte) (int, error) {
	w.sent.Store(true)
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach Flush and Hijack.
func (w *headerTracker) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
