package config

// DefaultPath is the configuration file used when no path is given.
const DefaultPath = ".amiddy"

// Config is the complete gateway configuration.
type Config struct {
	// Vhost is the externally facing virtual host.
	Vhost *Vhost `json:"vhost" yaml:"vhost"`
	// Source is the upstream used when no dependency matches.
	Source *Dependency `json:"source,omitempty" yaml:"source,omitempty"`
	// Deps are candidate upstreams, tried in order.
	Deps []*Dependency `json:"deps" yaml:"deps"`
	// Proxy holds base options applied to every forwarded request.
	Proxy Proxy `json:"proxy" yaml:"proxy"`
	// Options toggles mocking, recording and logging.
	Options Options `json:"options" yaml:"options"`
	// SelfSigned customises the generated vhost certificate.
	SelfSigned *SelfSigned `json:"selfsigned,omitempty" yaml:"selfsigned,omitempty"`
}

// Vhost is the virtual host served by this instance.
type Vhost struct {
	Name  string    `json:"name" yaml:"name"`
	Port  int       `json:"port,omitempty" yaml:"port,omitempty"`
	HTTPS bool      `json:"https,omitempty" yaml:"https,omitempty"`
	SSL   *SSLFiles `json:"ssl,omitempty" yaml:"ssl,omitempty"`
}

// SSLFiles points at a provided certificate and private key.
// Private is accepted as an older name for Key.
type SSLFiles struct {
	Cert    string `json:"cert" yaml:"cert"`
	Key     string `json:"key,omitempty" yaml:"key,omitempty"`
	Private string `json:"private,omitempty" yaml:"private,omitempty"`
}

// KeyPath returns Key, or Private when Key is empty.
func (s *SSLFiles) KeyPath() string {
	if s.Key != "" {
		return s.Key
	}
	return s.Private
}

// SelfSigned overrides fields of the generated vhost certificate.
type SelfSigned struct {
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
	CommonName   string `json:"commonName,omitempty" yaml:"commonName,omitempty"`
	Days         int    `json:"days,omitempty" yaml:"days,omitempty"`
}

// Dependency is one upstream service. Either Name or IP must be set.
type Dependency struct {
	Name     string      `json:"name,omitempty" yaml:"name,omitempty"`
	IP       string      `json:"ip,omitempty" yaml:"ip,omitempty"`
	Port     int         `json:"port,omitempty" yaml:"port,omitempty"`
	HTTPS    bool        `json:"https,omitempty" yaml:"https,omitempty"`
	Patterns []string    `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Mocks    []*MockRule `json:"mocks,omitempty" yaml:"mocks,omitempty"`
}

// Host returns IP when set, otherwise Name.
func (d *Dependency) Host() string {
	if d.IP != "" {
		return d.IP
	}
	return d.Name
}

// MockRule is a canned response served instead of forwarding.
type MockRule struct {
	// Patterns select request URLs; empty matches every URL.
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	// Methods restricts HTTP methods; nil matches every method.
	Methods []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	// Status defaults to 200.
	Status   int               `json:"status,omitempty" yaml:"status,omitempty"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Response any               `json:"response,omitempty" yaml:"response,omitempty"`
	// Fixture is a file whose content replaces Response.
	Fixture  string `json:"fixture,omitempty" yaml:"fixture,omitempty"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Proxy groups the base forwarding options and response tweaks.
type Proxy struct {
	Options  ProxyOptions    `json:"options" yaml:"options"`
	Response ResponseOptions `json:"response" yaml:"response"`
}

// ProxyOptions are merged into the options of every forwarded request.
type ProxyOptions struct {
	// ChangeOrigin rewrites the Host header to the target host.
	ChangeOrigin bool `json:"changeOrigin" yaml:"changeOrigin"`
	// Secure verifies upstream TLS certificates.
	Secure bool `json:"secure" yaml:"secure"`
	// WS allows WebSocket upgrades to be proxied. When false, upgrade
	// requests are answered with 501 Not Implemented and never reach the
	// upstream.
	WS bool `json:"ws" yaml:"ws"`
	// Headers are added to every forwarded request.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// RequestIDHeader, when set, is filled with a fresh UUID on forwarded
	// requests that do not carry it.
	RequestIDHeader string `json:"requestIdHeader,omitempty" yaml:"requestIdHeader,omitempty"`
}

// ResponseOptions alter responses sent back to the client.
type ResponseOptions struct {
	// Headers are set on every proxied and mocked response.
	Headers map[string]string `json:"headers" yaml:"headers"`
}

// Options are the feature switches.
type Options struct {
	Mock     MockOptions    `json:"mock" yaml:"mock"`
	Recorder RecorderConfig `json:"recorder" yaml:"recorder"`
	Log      LogOptions     `json:"log" yaml:"log"`
}

// MockOptions controls mock serving.
type MockOptions struct {
	// Enabled defaults to true when unset.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether mocks should be served.
func (m MockOptions) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// RecorderConfig controls response recording.
type RecorderConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Path is the output directory.
	Path string `json:"path" yaml:"path"`
	// FileNamePattern supports {METHOD}, {PATH}, {STATUS} and {EXT}.
	FileNamePattern string `json:"fileNamePattern" yaml:"fileNamePattern"`
	// IgnorePatterns exclude request paths from recording.
	IgnorePatterns []string `json:"ignorePatterns" yaml:"ignorePatterns"`
}

// LogOptions configures structured logging.
type LogOptions struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// File, when set, receives JSON log records with size-based rotation.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
