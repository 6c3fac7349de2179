package config

// Default values applied by SetDefaults.
const (
	DefaultSourceIP        = "127.0.0.1"
	DefaultSourcePort      = 3000
	DefaultFileNamePattern = "{METHOD}-{PATH}.{EXT}"
	DefaultRecorderPath    = "__amiddy__/records"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// DefaultIgnorePatterns returns the recorder ignore list used when none is
// configured.
func DefaultIgnorePatterns() []string {
	return []string{"**favicon*"}
}

// SetDefaults fills every unset field of cfg with its default. Sections are
// defaulted independently.
func SetDefaults(cfg *Config) {
	setSourceDefaults(cfg)
	setVhostDefaults(cfg)
	setDepsDefaults(cfg)
	setProxyDefaults(cfg)
	setOptionDefaults(cfg)
}

// port returns configured, or the well-known port for the scheme.
func port(https bool, configured int) int {
	if configured != 0 {
		return configured
	}
	if https {
		return 443
	}
	return 80
}

func setSourceDefaults(cfg *Config) {
	if cfg.Source == nil {
		cfg.Source = &Dependency{}
	}
	if cfg.Source.IP == "" && cfg.Source.Name == "" {
		cfg.Source.IP = DefaultSourceIP
	}
	if cfg.Source.Port == 0 {
		cfg.Source.Port = DefaultSourcePort
	}
}

func setVhostDefaults(cfg *Config) {
	if cfg.Vhost == nil {
		return
	}
	cfg.Vhost.Port = port(cfg.Vhost.HTTPS, cfg.Vhost.Port)
}

func setDepsDefaults(cfg *Config) {
	for _, dep := range cfg.Deps {
		if dep == nil {
			continue
		}
		dep.Port = port(dep.HTTPS, dep.Port)
	}
}

func setProxyDefaults(cfg *Config) {
	if cfg.Proxy.Options.Headers == nil {
		cfg.Proxy.Options.Headers = map[string]string{}
	}
	if cfg.Proxy.Response.Headers == nil {
		cfg.Proxy.Response.Headers = map[string]string{}
	}
}

func setOptionDefaults(cfg *Config) {
	if cfg.Options.Mock.Enabled == nil {
		cfg.Options.Mock.Enabled = Bool(true)
	}

	rec := &cfg.Options.Recorder
	if rec.FileNamePattern == "" {
		rec.FileNamePattern = DefaultFileNamePattern
	}
	if rec.IgnorePatterns == nil {
		rec.IgnorePatterns = DefaultIgnorePatterns()
	}
	if rec.Path == "" {
		rec.Path = DefaultRecorderPath
	}

	if cfg.Options.Log.Level == "" {
		cfg.Options.Log.Level = DefaultLogLevel
	}
	if cfg.Options.Log.Format == "" {
		cfg.Options.Log.Format = DefaultLogFormat
	}
}
