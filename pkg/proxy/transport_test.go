package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amtls "github.com/amiddy/amiddy/pkg/tls"
)

type hookSpy struct {
	requests  []*http.Request
	responses []*http.Response
	errs      []error
}

func (h *hookSpy) OnRequest(out *http.Request, _ *Exchange, _ *Options) {
	h.requests = append(h.requests, out)
}

func (h *hookSpy) OnResponse(resp *http.Response, _ *Exchange) {
	h.responses = append(h.responses, resp)
}

func (h *hookSpy) OnError(err error, ex *Exchange) {
	h.errs = append(h.errs, err)
	ex.Writer.WriteHeader(http.StatusBadGateway)
}

func targetOf(t *testing.T, srv *httptest.Server) *url.URL {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u
}

func TestTransport_Forward(t *testing.T) {
	var gotHost, gotHeader string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost, gotHeader = r.Host, r.Header.Get("X-Env")
		_, _ = io.WriteString(w, "ok")
	}))
	defer upstream.Close()

	hooks := &hookSpy{}
	tr := NewTransport(hooks, nil)
	defer tr.Close()

	tests := []struct {
		name     string
		opts     Options
		wantHost string
		wantEnv  string
	}{
		{"client host kept", Options{}, "client.local", ""},
		{"host header", Options{Headers: map[string]string{"Host": "vhost.local", "X-Env": "dev"}}, "vhost.local", "dev"},
		{"change origin wins", Options{ChangeOrigin: true, Headers: map[string]string{"host": "vhost.local"}}, upstream.Listener.Addr().String(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Target = targetOf(t, upstream)
			req := httptest.NewRequest(http.MethodGet, "http://client.local/path", nil)
			w := httptest.NewRecorder()

			tr.Forward(NewExchange(w, req), &tt.opts)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "ok", w.Body.String())
			assert.Equal(t, tt.wantHost, gotHost)
			assert.Equal(t, tt.wantEnv, gotHeader)
		})
	}
	assert.Len(t, hooks.requests, 3)
	assert.Len(t, hooks.responses, 3)
	assert.Empty(t, hooks.errs)
}

func TestTransport_UpstreamTLS(t *testing.T) {
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "secure")
	}))
	defer upstream.Close()

	t.Run("insecure accepts self-signed", func(t *testing.T) {
		hooks := &hookSpy{}
		tr := NewTransport(hooks, nil)
		w := httptest.NewRecorder()
		tr.Forward(NewExchange(w, httptest.NewRequest(http.MethodGet, "/", nil)), &Options{Target: targetOf(t, upstream)})

		assert.Equal(t, "secure", w.Body.String())
		assert.Empty(t, hooks.errs)
	})

	t.Run("secure rejects unknown authority", func(t *testing.T) {
		hooks := &hookSpy{}
		tr := NewTransport(hooks, nil)
		w := httptest.NewRecorder()
		tr.Forward(NewExchange(w, httptest.NewRequest(http.MethodGet, "/", nil)), &Options{Target: targetOf(t, upstream), Secure: true})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		require.Len(t, hooks.errs, 1)
		assert.Empty(t, hooks.responses)
	})
}

func TestTransport_RoundTripperCache(t *testing.T) {
	tr := NewTransport(&hookSpy{}, nil)

	a, err := tr.roundTripper(&Options{})
	require.NoError(t, err)
	b, err := tr.roundTripper(&Options{})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.True(t, a.TLSClientConfig.InsecureSkipVerify)

	secure, err := tr.roundTripper(&Options{Secure: true})
	require.NoError(t, err)
	assert.NotSame(t, a, secure)
	assert.False(t, secure.TLSClientConfig.InsecureSkipVerify)
}

func TestTransport_ClientCertificate(t *testing.T) {
	gen, err := amtls.GenerateSelfSignedCert(amtls.ConfigForVhost("app.local"))
	require.NoError(t, err)
	material := gen.Material()

	tr := NewTransport(&hookSpy{}, nil)
	rt, err := tr.roundTripper(&Options{SSL: material})
	require.NoError(t, err)
	assert.Len(t, rt.TLSClientConfig.Certificates, 1)

	hooks := &hookSpy{}
	tr = NewTransport(hooks, nil)
	w := httptest.NewRecorder()
	broken := &amtls.Material{Cert: []byte("nope"), Key: []byte("nope")}
	tr.Forward(NewExchange(w, httptest.NewRequest(http.MethodGet, "/", nil)), &Options{
		Target: &url.URL{Scheme: "https", Host: "127.0.0.1:1"},
		SSL:    broken,
	})
	require.Len(t, hooks.errs, 1)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
