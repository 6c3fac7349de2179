package proxy

import (
	"maps"
	"net/url"

	"github.com/amiddy/amiddy/pkg/config"
	amtls "github.com/amiddy/amiddy/pkg/tls"
)

// Options describe how a single request is forwarded. They are built fresh
// for every request and never shared.
type Options struct {
	// Target is the upstream base URL.
	Target *url.URL
	// ChangeOrigin sets the outgoing Host header to the target host.
	ChangeOrigin bool
	// Secure verifies the upstream certificate.
	Secure bool
	// WS allows WebSocket upgrades to be tunnelled.
	WS bool
	// Headers are set on the outgoing request. A "host" key sets the Host
	// header.
	Headers map[string]string
	// RequestIDHeader is filled with a UUID when the client did not send it.
	RequestIDHeader string
	// SSL is presented as the client certificate to HTTPS dependencies.
	SSL *amtls.Material
}

// NewOptions merges the base proxy options of cfg with the routing decision
// for one request. The outgoing Host defaults to the vhost name and the
// target to the source upstream; a matched dependency replaces the target
// and, when it speaks HTTPS, receives the vhost material as client
// certificate.
func NewOptions(cfg *config.Config, dep *config.Dependency, ssl *amtls.Material) *Options {
	base := cfg.Proxy.Options

	headers := make(map[string]string, len(base.Headers)+1)
	maps.Copy(headers, base.Headers)
	if cfg.Vhost != nil {
		headers["host"] = cfg.Vhost.Name
	}

	opts := &Options{
		ChangeOrigin:    base.ChangeOrigin,
		Secure:          base.Secure,
		WS:              base.WS,
		Headers:         headers,
		RequestIDHeader: base.RequestIDHeader,
	}
	if cfg.Source != nil {
		opts.Target = BuildURL(cfg.Source)
	}

	if dep != nil {
		opts.Target = BuildURL(dep)
		if dep.HTTPS && ssl != nil {
			opts.SSL = ssl
		}
	}
	return opts
}
