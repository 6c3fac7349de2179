package proxy

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Entry describes one forwarded request while its response is pending.
type Entry struct {
	ID        int
	Method    string
	StartTime time.Time
	URI       string
}

// IsZero reports whether e is the empty entry returned for unknown ids.
func (e Entry) IsZero() bool {
	return e == Entry{}
}

// Tracker stores in-flight requests keyed by correlation id.
type Tracker interface {
	Set(out *http.Request, ex *Exchange, target *url.URL) int
	Get(id int) Entry
	Clear(id int)
}

// Registry assigns monotonically increasing ids to forwarded requests and
// remembers their method, start time and URI until the response arrives.
// Entries for requests that never get a response stay until the process
// exits.
type Registry struct {
	mu      sync.Mutex
	next    int
	entries map[int]Entry
	now     func() time.Time
}

// NewRegistry creates an empty registry whose first id is 0.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[int]Entry),
		now:     time.Now,
	}
}

// Set registers the outgoing request out, stamps the new id on both
// correlation tags of ex and returns the id.
func (r *Registry) Set(out *http.Request, ex *Exchange, target *url.URL) int {
	uri := requestURI(out, target)
	start := r.now()

	r.mu.Lock()
	id := r.next
	r.next++
	r.entries[id] = Entry{ID: id, Method: out.Method, StartTime: start, URI: uri}
	r.mu.Unlock()

	ex.stamp(id)
	return id
}

// Get returns the entry for id, or the zero Entry when there is none.
func (r *Registry) Get(id int) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id]
}

// Clear removes the entry for id. Clearing an unknown id is a no-op.
func (r *Registry) Clear(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of requests awaiting a response.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// NewEntry builds an entry for a response that was not forwarded, such as a
// mock. It has no id and a zero start time, and is not stored.
func NewEntry(method, path string, target *url.URL) Entry {
	return Entry{Method: method, URI: decodeURI(target.Scheme + "://" + target.Host + path)}
}

// requestURI is the full upstream URI of out, percent-decoded for display.
func requestURI(out *http.Request, target *url.URL) string {
	scheme, host := target.Scheme, target.Host
	if out.URL.Host != "" {
		scheme, host = out.URL.Scheme, out.URL.Host
	}
	return decodeURI(scheme + "://" + host + out.URL.RequestURI())
}

func decodeURI(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
