package proxy

import (
	"net"
	"net/url"
	"strconv"

	"github.com/amiddy/amiddy/internal/matching"
	"github.com/amiddy/amiddy/pkg/config"
)

// ResolveDependency returns the first dependency whose patterns match
// rawURL, or nil. Nil dependencies and dependencies without patterns are
// skipped.
func ResolveDependency(deps []*config.Dependency, rawURL string) *config.Dependency {
	for _, dep := range deps {
		if dep == nil || len(dep.Patterns) == 0 {
			continue
		}
		if matching.MatchAny(rawURL, dep.Patterns) {
			return dep
		}
	}
	return nil
}

// BuildURL returns the base URL of dep: http(s)://<ip or name>:<port>.
// The port is omitted when it is zero.
func BuildURL(dep *config.Dependency) *url.URL {
	scheme := "http"
	if dep.HTTPS {
		scheme = "https"
	}

	host := dep.Host()
	if dep.Port != 0 {
		host = net.JoinHostPort(host, strconv.Itoa(dep.Port))
	}
	return &url.URL{Scheme: scheme, Host: host}
}

// originHost is the Host header for target with the scheme's default port
// removed.
func originHost(target *url.URL) string {
	port := target.Port()
	if (target.Scheme == "http" && port == "80") || (target.Scheme == "https" && port == "443") {
		return target.Hostname()
	}
	return target.Host
}
