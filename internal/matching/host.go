package matching

import (
	"net"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/idna"
)

// MatchHost reports whether the host of a request (optionally carrying a
// port) matches a virtual host name. Matching is case-insensitive and
// label-aligned: "*" stands for exactly one DNS label, so "*.example.com"
// matches "api.example.com" but neither "example.com" nor "a.b.example.com".
func MatchHost(pattern, host string) bool {
	if pattern == "" || host == "" {
		return false
	}

	hostname := stripPort(host)
	name := normalizeHost(pattern)
	hostname = normalizeHost(hostname)
	if name == "" || hostname == "" {
		return false
	}

	if name == hostname {
		return true
	}
	if !strings.Contains(name, "*") {
		return false
	}

	// Labels become path segments so that doublestar's "*" stays within one label.
	ok, err := doublestar.Match(strings.ReplaceAll(name, ".", "/"), strings.ReplaceAll(hostname, ".", "/"))
	return err == nil && ok
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}

// normalizeHost lowercases a host name and converts internationalised labels
// to their ASCII form. Wildcard labels are preserved as-is.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	labels := strings.Split(host, ".")
	for i, label := range labels {
		if label == "" || strings.Contains(label, "*") {
			continue
		}
		if ascii, err := idna.Lookup.ToASCII(label); err == nil {
			labels[i] = ascii
		}
	}
	return strings.Join(labels, ".")
}
