package proxy

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiddy/amiddy/pkg/config"
	"github.com/amiddy/amiddy/pkg/fileio"
)

type write struct {
	path    string
	content string
}

type spyWriter struct {
	mu     sync.Mutex
	writes []write
}

func (s *spyWriter) Write(path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, write{path: path, content: string(content)})
}

func (s *spyWriter) all() []write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]write(nil), s.writes...)
}

func syncSubmit(task func()) error {
	task()
	return nil
}

func recorderConfig(path string) config.RecorderConfig {
	return config.RecorderConfig{
		Enabled:         true,
		Path:            path,
		FileNamePattern: config.DefaultFileNamePattern,
		IgnorePatterns:  config.DefaultIgnorePatterns(),
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		data    FileNameData
		want    string
	}{
		{"default pattern", "{METHOD}-{PATH}.{EXT}", FileNameData{Method: "GET", Path: "/api/user/5", Ext: "json"}, "GET-_api_user_5.json"},
		{"query dropped", "{METHOD}-{PATH}.{EXT}", FileNameData{Method: "GET", Path: "/a/b.c?x=1", Ext: "json"}, "GET-_a_b_c.json"},
		{"fragment dropped", "{PATH}", FileNameData{Path: "/a#frag?x"}, "_a"},
		{"question before hash", "{PATH}", FileNameData{Path: "/a?x#y"}, "_a"},
		{"status", "{STATUS}_{METHOD}{PATH}.{EXT}", FileNameData{Method: "POST", Path: "/login", Status: 401, Ext: "html"}, "401_POST_login.html"},
		{"first occurrence only", "{METHOD}-{METHOD}", FileNameData{Method: "GET"}, "GET-{METHOD}"},
		{"no placeholders", "static.txt", FileNameData{Method: "GET"}, "static.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.pattern, tt.data))
		})
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"application/json", "json"},
		{"application/json; charset=utf-8", "json"},
		{"TEXT/HTML; charset=UTF-8", "html"},
		{"image/png", "png"},
		{"image/jpeg", "jpeg"},
		{"application/octet-stream", "bin"},
		{"text/plain", "txt"},
		{"", "txt"},
		{"application/x-definitely-unknown", "txt"},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.contentType))
		})
	}
}

func TestSaveToFile(t *testing.T) {
	deps := []*config.Dependency{{Name: "api", Patterns: []string{"/api/**", "**favicon*"}}}

	t.Run("writes under recorder path", func(t *testing.T) {
		files := &spyWriter{}
		rec, err := NewRecorder(recorderConfig("records"), deps, files, WithSubmitter(syncSubmit))
		require.NoError(t, err)

		rec.SaveToFile(`{"id":5}`, ResponseMeta{Method: "GET", Path: "/api/user/5", Status: 200, ContentType: "application/json"})
		assert.Equal(t, []write{{path: filepath.Join("records", "GET-_api_user_5.json"), content: `{"id":5}`}}, files.all())
	})

	t.Run("empty path writes relative name", func(t *testing.T) {
		files := &spyWriter{}
		rec, err := NewRecorder(recorderConfig(""), deps, files, WithSubmitter(syncSubmit))
		require.NoError(t, err)

		rec.SaveToFile("x", ResponseMeta{Method: "GET", Path: "/api/a", Status: 200})
		assert.Equal(t, []write{{path: "GET-_api_a.txt", content: "x"}}, files.all())
	})

	t.Run("ignored path", func(t *testing.T) {
		files := &spyWriter{}
		rec, err := NewRecorder(recorderConfig("records"), deps, files, WithSubmitter(syncSubmit))
		require.NoError(t, err)

		rec.SaveToFile("icon", ResponseMeta{Method: "GET", Path: "/favicon.ico", Status: 200, ContentType: "image/x-icon"})
		assert.Empty(t, files.all())
	})

	t.Run("no dependency", func(t *testing.T) {
		files := &spyWriter{}
		cfg := recorderConfig("records")
		cfg.IgnorePatterns = nil
		rec, err := NewRecorder(cfg, deps, files, WithSubmitter(syncSubmit))
		require.NoError(t, err)

		rec.SaveToFile("home", ResponseMeta{Method: "GET", Path: "/index.html", Status: 200})
		assert.Empty(t, files.all())
	})
}

func newUpstreamResponse(t *testing.T, status int, contentType, body, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://api.local"+path, nil)
	require.NoError(t, err)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func TestRecorder_Record(t *testing.T) {
	deps := []*config.Dependency{{Name: "api", Patterns: []string{"/api/**"}}}

	t.Run("saves after body is read", func(t *testing.T) {
		files := &spyWriter{}
		rec, err := NewRecorder(recorderConfig("out"), deps, files, WithSubmitter(syncSubmit))
		require.NoError(t, err)
		assert.True(t, rec.Enabled())

		resp := newUpstreamResponse(t, 200, "application/json", `{"ok":true}`, "/api/status?verbose=1")
		rec.Record(resp)
		assert.Empty(t, files.all(), "nothing is saved before the client reads the body")

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))

		assert.Equal(t, []write{{path: filepath.Join("out", "GET-_api_status.json"), content: `{"ok":true}`}}, files.all())
	})

	t.Run("disabled", func(t *testing.T) {
		files := &spyWriter{}
		cfg := recorderConfig("out")
		cfg.Enabled = false
		rec, err := NewRecorder(cfg, deps, files)
		require.NoError(t, err)
		assert.False(t, rec.Enabled())

		resp := newUpstreamResponse(t, 200, "text/plain", "hi", "/api/x")
		original := resp.Body
		rec.Record(resp)
		assert.Equal(t, original, resp.Body)
	})

	t.Run("protocol switch skipped", func(t *testing.T) {
		files := &spyWriter{}
		rec, err := NewRecorder(recorderConfig("out"), deps, files, WithSubmitter(syncSubmit))
		require.NoError(t, err)

		resp := newUpstreamResponse(t, http.StatusSwitchingProtocols, "", "", "/api/ws")
		original := resp.Body
		rec.Record(resp)
		assert.Equal(t, original, resp.Body)
	})

	t.Run("oversized body dropped", func(t *testing.T) {
		files := &spyWriter{}
		rec, err := NewRecorder(recorderConfig("out"), deps, files, WithSubmitter(syncSubmit), WithMaxBodySize(4))
		require.NoError(t, err)

		resp := newUpstreamResponse(t, 200, "text/plain", "too long", "/api/x")
		rec.Record(resp)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "too long", string(body))
		assert.Empty(t, files.all())
	})

	t.Run("queue failure reported", func(t *testing.T) {
		files := &spyWriter{}
		report := &spyReporter{}
		failing := func(func()) error { return errors.New("pool closed") }
		rec, err := NewRecorder(recorderConfig("out"), deps, files, WithSubmitter(failing), WithRecorderReporter(report))
		require.NoError(t, err)

		resp := newUpstreamResponse(t, 200, "text/plain", "x", "/api/x")
		rec.Record(resp)
		_, _ = io.ReadAll(resp.Body)

		assert.Empty(t, files.all())
		require.Len(t, report.errors(), 1)
		assert.Contains(t, report.errors()[0], "pool closed")
		require.NoError(t, rec.Close(time.Second))
	})
}

func TestRecorder_PoolWritesFiles(t *testing.T) {
	dir := t.TempDir()
	deps := []*config.Dependency{{Name: "api", Patterns: []string{"/api/**"}}}
	rec, err := NewRecorder(recorderConfig(dir), deps, &fileio.Writer{})
	require.NoError(t, err)

	resp := newUpstreamResponse(t, 200, "application/json", `[1,2,3]`, "/api/list")
	rec.Record(resp)
	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, rec.Close(5*time.Second))

	data, err := os.ReadFile(filepath.Join(dir, "GET-_api_list.json"))
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(data))
}
