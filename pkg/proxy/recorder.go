package proxy

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/panjf2000/ants/v2"

	"github.com/amiddy/amiddy/internal/matching"
	"github.com/amiddy/amiddy/pkg/config"
)

const (
	// DefaultMaxBodySize is the largest response body the recorder keeps (10MB).
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultRecorderWorkers bounds concurrent file writes.
	DefaultRecorderWorkers = 16

	// fallbackExtension is used when the content type has no known extension.
	fallbackExtension = "txt"
)

// FileWriter writes recorder output. Failures are handled by the writer.
type FileWriter interface {
	Write(path string, content []byte)
}

// ResponseMeta identifies a recorded response.
type ResponseMeta struct {
	Method      string
	Path        string
	Status      int
	ContentType string
}

// FileNameData fills the placeholders of a file name pattern.
type FileNameData struct {
	Method string
	Path   string
	Status int
	Ext    string
}

// Recorder writes proxied response bodies to disk. Bodies are captured as
// the client reads them and saved on a worker pool once complete.
type Recorder struct {
	cfg     config.RecorderConfig
	deps    []*config.Dependency
	files   FileWriter
	report  Reporter
	maxBody int

	pool   *ants.Pool
	submit func(task func()) error
	wg     sync.WaitGroup
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderReporter sets where save failures are reported.
func WithRecorderReporter(r Reporter) RecorderOption {
	return func(rec *Recorder) { rec.report = r }
}

// WithSubmitter replaces the worker pool. Tests use it to save
// synchronously.
func WithSubmitter(submit func(task func()) error) RecorderOption {
	return func(rec *Recorder) { rec.submit = submit }
}

// WithMaxBodySize limits captured bodies; larger responses are not saved.
func WithMaxBodySize(n int) RecorderOption {
	return func(rec *Recorder) { rec.maxBody = n }
}

// NewRecorder creates a recorder for cfg. deps decide which paths are
// eligible for recording.
func NewRecorder(cfg config.RecorderConfig, deps []*config.Dependency, files FileWriter, opts ...RecorderOption) (*Recorder, error) {
	r := &Recorder{
		cfg:     cfg,
		deps:    deps,
		files:   files,
		report:  nopReporter{},
		maxBody: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.submit == nil && cfg.Enabled {
		pool, err := ants.NewPool(DefaultRecorderWorkers, ants.WithExpiryDuration(time.Minute))
		if err != nil {
			return nil, err
		}
		r.pool = pool
		r.submit = pool.Submit
	}
	return r, nil
}

// Enabled reports whether responses are recorded.
func (r *Recorder) Enabled() bool {
	return r.cfg.Enabled
}

// Record arranges for the body of resp to be saved once it has been read
// to the end. It never reads the body itself, so forwarding to the client
// is not delayed. Protocol switches are not recorded.
func (r *Recorder) Record(resp *http.Response) {
	if !r.Enabled() || resp == nil || resp.Body == nil {
		return
	}
	if resp.StatusCode == http.StatusSwitchingProtocols {
		return
	}

	meta := ResponseMeta{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if resp.Request != nil {
		meta.Method = resp.Request.Method
		meta.Path = resp.Request.URL.RequestURI()
	}

	resp.Body = &captureBody{
		ReadCloser: resp.Body,
		limit:      r.maxBody,
		done: func(body []byte) {
			r.enqueue(string(body), meta)
		},
	}
}

func (r *Recorder) enqueue(body string, meta ResponseMeta) {
	r.wg.Add(1)
	err := r.submit(func() {
		defer r.wg.Done()
		r.SaveToFile(body, meta)
	})
	if err != nil {
		r.wg.Done()
		r.report.Error("cannot queue recording of "+meta.Path+": "+err.Error(), "recorder")
	}
}

// SaveToFile writes body for the response described by meta. Paths that no
// dependency serves, and paths matching an ignore pattern, are skipped.
func (r *Recorder) SaveToFile(body string, meta ResponseMeta) {
	if ResolveDependency(r.deps, meta.Path) == nil {
		return
	}
	if matching.MatchAny(meta.Path, r.cfg.IgnorePatterns) {
		return
	}

	name := FileName(r.cfg.FileNamePattern, FileNameData{
		Method: meta.Method,
		Path:   meta.Path,
		Status: meta.Status,
		Ext:    Extension(meta.ContentType),
	})
	if r.cfg.Path != "" {
		name = filepath.Join(r.cfg.Path, name)
	}
	r.files.Write(name, []byte(body))
}

// Close waits up to timeout for queued saves and releases the pool.
func (r *Recorder) Close(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}

	if r.pool != nil {
		return r.pool.ReleaseTimeout(timeout)
	}
	return nil
}

// FileName fills the first occurrence of each placeholder in pattern.
// {PATH} is the path up to the first '?' or '#' with '/' and '.' replaced
// by '_'.
func FileName(pattern string, data FileNameData) string {
	path := data.Path
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.NewReplacer("/", "_", ".", "_").Replace(path)

	name := strings.Replace(pattern, "{METHOD}", data.Method, 1)
	name = strings.Replace(name, "{PATH}", path, 1)
	name = strings.Replace(name, "{EXT}", data.Ext, 1)
	name = strings.Replace(name, "{STATUS}", strconv.Itoa(data.Status), 1)
	return name
}

// preferredExtensions pins the extension for media types where mimetype
// picks a different one than recorded files have always used.
var preferredExtensions = map[string]string{
	"application/octet-stream": "bin",
	"image/jpeg":               "jpeg",
	"image/tiff":               "tif",
	"video/quicktime":          "qt",
}

// Extension returns the file extension, without dot, for a Content-Type
// header value.
func Extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	}
	if mediaType == "" {
		return fallbackExtension
	}

	if ext, ok := preferredExtensions[mediaType]; ok {
		return ext
	}
	if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
		return strings.TrimPrefix(m.Extension(), ".")
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return fallbackExtension
}

// captureBody copies everything read through it and hands the copy to done
// at EOF. Bodies over limit are dropped.
type captureBody struct {
	io.ReadCloser
	buf      bytes.Buffer
	limit    int
	overflow bool
	once     sync.Once
	done     func([]byte)
}

func (c *captureBody) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if n > 0 && !c.overflow {
		if c.limit > 0 && c.buf.Len()+n > c.limit {
			c.overflow = true
			c.buf.Reset()
		} else {
			c.buf.Write(p[:n])
		}
	}
	if err == io.EOF && !c.overflow {
		c.once.Do(func() { c.done(c.buf.Bytes()) })
	}
	return n, err
}
