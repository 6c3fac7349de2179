package proxy

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/amiddy/amiddy/internal/matching"
	"github.com/amiddy/amiddy/pkg/config"
	"github.com/amiddy/amiddy/pkg/fileio"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// MockResponse is a fully resolved mock ready to be written.
type MockResponse struct {
	Status  int
	Headers map[string]string
	// Body is a string or a decoded JSON value.
	Body any
}

// FixtureReader returns the content of a mock fixture file.
type FixtureReader func(path string) (string, error)

// ReadFixture resolves path against the working directory and reads it.
func ReadFixture(path string) (string, error) {
	abs, err := fileio.AbsolutePath(path)
	if err != nil {
		return "", err
	}
	return fileio.Read(abs)
}

// ResolveMock returns the first enabled rule that accepts method and whose
// patterns match url. A rule without methods accepts every method and a
// rule without patterns matches every URL.
func ResolveMock(mocks []*config.MockRule, url, method string) *config.MockRule {
	for _, m := range mocks {
		if m == nil || m.Disabled {
			continue
		}
		if m.Methods != nil && !slices.Contains(m.Methods, method) {
			continue
		}
		if len(m.Patterns) > 0 && !matching.MatchAny(url, m.Patterns) {
			continue
		}
		return m
	}
	return nil
}

// BuildMockResponse resolves status, headers and body of rule. baseHeaders
// are copied, never modified, and overlaid with the rule's headers.
//
// A fixture that cannot be read is reported through the returned error; the
// response is still usable and falls back to the rule's inline response.
func BuildMockResponse(rule *config.MockRule, baseHeaders map[string]string, read FixtureReader) (MockResponse, error) {
	resp := MockResponse{
		Status:  rule.Status,
		Headers: make(map[string]string, len(baseHeaders)+len(rule.Headers)),
		Body:    rule.Response,
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	maps.Copy(resp.Headers, baseHeaders)
	maps.Copy(resp.Headers, rule.Headers)

	var fixtureErr error
	if rule.Fixture != "" {
		if read == nil {
			read = ReadFixture
		}
		content, err := read(rule.Fixture)
		if err != nil {
			fixtureErr = fmt.Errorf("cannot load fixture %s: %w", rule.Fixture, err)
		} else {
			resp.Body = content
		}
	}

	if resp.Body == nil {
		resp.Body = ""
	}
	if s, ok := resp.Body.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil && parsed != nil {
			resp.Body = parsed
		}
	}
	return resp, fixtureErr
}

// WriteMock writes resp to w. String bodies are sent as HTML and other
// values as JSON unless the mock sets its own Content-Type.
func WriteMock(w http.ResponseWriter, resp MockResponse) error {
	var (
		data        []byte
		contentType string
	)
	switch body := resp.Body.(type) {
	case string:
		data, contentType = []byte(body), contentTypeHTML
	case []byte:
		data, contentType = body, "application/octet-stream"
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding mock body: %w", err)
		}
		data, contentType = encoded, contentTypeJSON
	}

	h := w.Header()
	for k, v := range resp.Headers {
		h.Set(k, v)
	}
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}
	w.WriteHeader(resp.Status)
	_, err := w.Write(data)
	return err
}
