package proxy

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/amiddy/amiddy/pkg/config"
	"github.com/amiddy/amiddy/pkg/fileio"
	amtls "github.com/amiddy/amiddy/pkg/tls"
)

// recorderDrainTimeout bounds how long Close waits for pending recordings.
const recorderDrainTimeout = 5 * time.Second

// GatewayOptions supplies the collaborators of a Gateway. Zero values are
// replaced with working defaults.
type GatewayOptions struct {
	// SSL is the vhost material, also used as client certificate for
	// HTTPS dependencies.
	SSL *amtls.Material
	// Reporter receives response lines and errors.
	Reporter Reporter
	// Logger receives debug records.
	Logger *slog.Logger
	// Registry tracks forwarded requests.
	Registry *Registry
	// Files writes recorder output.
	Files FileWriter
	// Fixtures reads mock fixture files.
	Fixtures FixtureReader
	// RecorderOptions are passed to the recorder.
	RecorderOptions []RecorderOption
}

// Gateway routes each request to a mock or an upstream.
type Gateway struct {
	cfg       *config.Config
	ssl       *amtls.Material
	report    Reporter
	logger    *slog.Logger
	registry  *Registry
	recorder  *Recorder
	transport *Transport
	fixtures  FixtureReader
}

// NewGateway creates a Gateway for a defaulted configuration.
func NewGateway(cfg *config.Config, opts GatewayOptions) (*Gateway, error) {
	if cfg == nil || cfg.Source == nil {
		return nil, errors.New("gateway needs a configuration with a source")
	}

	g := &Gateway{
		cfg:      cfg,
		ssl:      opts.SSL,
		report:   opts.Reporter,
		logger:   opts.Logger,
		registry: opts.Registry,
		fixtures: opts.Fixtures,
	}
	if g.report == nil {
		g.report = nopReporter{}
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	if g.registry == nil {
		g.registry = NewRegistry()
	}
	if g.fixtures == nil {
		g.fixtures = ReadFixture
	}

	files := opts.Files
	if files == nil {
		files = &fileio.Writer{OnError: func(path string, err error) {
			g.report.Error("cannot write "+path+": "+err.Error(), "recorder")
		}}
	}

	recOpts := append([]RecorderOption{WithRecorderReporter(g.report)}, opts.RecorderOptions...)
	rec, err := NewRecorder(cfg.Options.Recorder, cfg.Deps, files, recOpts...)
	if err != nil {
		return nil, err
	}
	g.recorder = rec

	g.transport = NewTransport(&listener{
		registry:        g.registry,
		recorder:        rec,
		report:          g.report,
		responseHeaders: cfg.Proxy.Response.Headers,
	}, g.logger)
	return g, nil
}

// Registry returns the registry of in-flight requests.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// ServeHTTP serves a mock when one matches and forwards the request
// otherwise.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := r.URL.RequestURI()
	dep := ResolveDependency(g.cfg.Deps, url)

	if g.serveMock(w, r, url, dep) {
		return
	}

	opts := NewOptions(g.cfg, dep, g.ssl)
	g.logger.Debug("forwarding request",
		"method", r.Method,
		"url", url,
		"target", opts.Target.String(),
		"inflight", g.registry.Len(),
	)
	g.transport.Forward(NewExchange(w, r), opts)
}

func (g *Gateway) serveMock(w http.ResponseWriter, r *http.Request, url string, dep *config.Dependency) bool {
	if !g.cfg.Options.Mock.IsEnabled() {
		return false
	}

	owner := dep
	if owner == nil {
		owner = g.cfg.Source
	}
	rule := ResolveMock(owner.Mocks, url, r.Method)
	if rule == nil {
		return false
	}

	resp, err := BuildMockResponse(rule, g.cfg.Proxy.Response.Headers, g.fixtures)
	if err != nil {
		g.report.Error(err.Error(), "mock")
	}
	if err := WriteMock(w, resp); err != nil {
		g.report.Error(err.Error(), "mock")
	}

	entry := NewEntry(r.Method, url, BuildURL(owner))
	g.report.Response(entry.Method, resp.Status, entry.StartTime, entry.URI)
	return true
}

// Close waits for pending recordings and drops idle upstream connections.
func (g *Gateway) Close() error {
	g.transport.Close()
	return g.recorder.Close(recorderDrainTimeout)
}
