package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"
)

// Reporter prints request outcomes and messages for the user.
type Reporter interface {
	Response(method string, status int, start time.Time, uri string)
	Error(message, category string)
	Success(message, category string)
}

type nopReporter struct{}

func (nopReporter) Response(string, int, time.Time, string) {}
func (nopReporter) Error(string, string)                    {}
func (nopReporter) Success(string, string)                  {}

// responseRecorder receives responses eligible for recording.
type responseRecorder interface {
	Record(resp *http.Response)
}

// listener wires transport events to the registry, the recorder and the
// reporter.
type listener struct {
	registry        Tracker
	recorder        responseRecorder
	report          Reporter
	responseHeaders map[string]string
}

var _ Hooks = (*listener)(nil)

func (l *listener) OnRequest(out *http.Request, ex *Exchange, opts *Options) {
	l.registry.Set(out, ex, opts.Target)
}

func (l *listener) OnResponse(resp *http.Response, ex *Exchange) {
	id, ok := ex.correlated()
	if !ok {
		return
	}

	if l.recorder != nil {
		l.recorder.Record(resp)
	}

	entry := l.registry.Get(id)
	l.report.Response(entry.Method, resp.StatusCode, entry.StartTime, entry.URI)
	l.registry.Clear(id)

	for k, v := range l.responseHeaders {
		resp.Header.Set(k, v)
	}
}

func (l *listener) OnError(err error, ex *Exchange) {
	if !isClientGone(err) {
		l.report.Error(err.Error(), "proxy")
	}

	if !ex.HeadersSent() {
		ex.Writer.WriteHeader(http.StatusInternalServerError)
	}
	_, _ = fmt.Fprintf(ex.Writer, "Proxy error occurred: %s", err.Error())
}

// isClientGone reports errors caused by the connection going away rather
// than by the upstream misbehaving.
func isClientGone(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, context.Canceled)
}
