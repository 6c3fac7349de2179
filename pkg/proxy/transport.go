package proxy

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	gwhttp "github.com/amiddy/amiddy/pkg/httputil"
	amtls "github.com/amiddy/amiddy/pkg/tls"
)

// Hooks observe the three events of a forwarded exchange.
type Hooks interface {
	// OnRequest runs once the outgoing request is ready to be sent.
	OnRequest(out *http.Request, ex *Exchange, opts *Options)
	// OnResponse runs when upstream headers arrive, before anything is
	// written to the client.
	OnResponse(resp *http.Response, ex *Exchange)
	// OnError runs when the exchange fails. It owns writing the response.
	OnError(err error, ex *Exchange)
}

type transportKey struct {
	secure bool
	ssl    *amtls.Material
}

// Transport forwards exchanges to an upstream using a reverse proxy built
// from per-request Options. Upstream connections are pooled per TLS
// setting.
type Transport struct {
	hooks  Hooks
	logger *slog.Logger

	mu         sync.Mutex
	transports map[transportKey]*http.Transport
}

// NewTransport creates a Transport that reports events to hooks.
func NewTransport(hooks Hooks, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transport{
		hooks:      hooks,
		logger:     logger,
		transports: make(map[transportKey]*http.Transport),
	}
}

// Forward sends ex to opts.Target and streams the response back.
func (t *Transport) Forward(ex *Exchange, opts *Options) {
	if !opts.WS && websocket.IsWebSocketUpgrade(ex.Request) {
		gwhttp.WriteText(ex.Writer, http.StatusNotImplemented, "WebSocket proxying is disabled")
		return
	}

	rt, err := t.roundTripper(opts)
	if err != nil {
		t.hooks.OnError(err, ex)
		return
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(opts.Target)
			pr.Out.Host = pr.In.Host
			for k, v := range opts.Headers {
				if strings.EqualFold(k, "host") {
					pr.Out.Host = v
					continue
				}
				pr.Out.Header.Set(k, v)
			}
			if opts.ChangeOrigin {
				pr.Out.Host = originHost(opts.Target)
			}
			if opts.RequestIDHeader != "" && pr.Out.Header.Get(opts.RequestIDHeader) == "" {
				pr.Out.Header.Set(opts.RequestIDHeader, uuid.NewString())
			}
			t.hooks.OnRequest(pr.Out, ex, opts)
		},
		Transport: rt,
		ModifyResponse: func(resp *http.Response) error {
			t.hooks.OnResponse(resp, ex)
			return nil
		},
		ErrorHandler: func(_ http.ResponseWriter, _ *http.Request, err error) {
			t.hooks.OnError(err, ex)
		},
		ErrorLog: slog.NewLogLogger(t.logger.Handler(), slog.LevelWarn),
	}
	rp.ServeHTTP(ex.Writer, ex.Request)
}

func (t *Transport) roundTripper(opts *Options) (*http.Transport, error) {
	key := transportKey{secure: opts.Secure, ssl: opts.SSL}

	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.transports[key]; ok {
		return tr, nil
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !opts.Secure, //nolint:gosec // development upstreams commonly use self-signed certificates
		MinVersion:         tls.VersionTLS12,
	}
	if opts.SSL != nil {
		cert, err := opts.SSL.TLSCertificate()
		if err != nil {
			return nil, err
		}
		tr.TLSClientConfig.Certificates = []tls.Certificate{cert}
	}

	t.transports[key] = tr
	return tr, nil
}

// Close drops idle upstream connections.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tr := range t.transports {
		tr.CloseIdleConnections()
	}
}
