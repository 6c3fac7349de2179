package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Vhost: &Vhost{Name: "local.example.com"},
		Deps: []*Dependency{
			{Name: "api.example.com", Patterns: []string{"/api/**"}},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Validate(validConfig()))
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing vhost", func(c *Config) { c.Vhost = nil }, "Missing `vhost` property"},
		{"missing vhost name", func(c *Config) { c.Vhost.Name = "" }, "Missing `vhost.name` property"},
		{"missing deps", func(c *Config) { c.Deps = nil }, "Missing `deps` property"},
		{
			"dependency without host",
			func(c *Config) { c.Deps = append(c.Deps, &Dependency{Patterns: []string{"/x"}}) },
			`Dependency with index 1 is missing "ip" or "name"`,
		},
		{
			"dependency without patterns",
			func(c *Config) { c.Deps[0].Patterns = nil },
			"Dependency with index 0 should have patterns defined as array of strings",
		},
		{"vhost port", func(c *Config) { c.Vhost.Port = 70000 }, "vhost.port: port 70000 out of range"},
		{
			"mock status",
			func(c *Config) { c.Deps[0].Mocks = []*MockRule{nil, {Status: 42}} },
			"deps[0].mocks[1].status: status 42 is not a valid HTTP status",
		},
		{
			"ssl without key",
			func(c *Config) { c.Vhost.SSL = &SSLFiles{Cert: "cert.pem"} },
			"vhost.ssl: both cert and key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsDependencyErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Deps = []*Dependency{{}, nil, {IP: "10.0.0.1"}}

	err := Validate(cfg)
	require.Error(t, err)

	var result *ValidationResult
	require.True(t, errors.As(err, &result))
	assert.Len(t, result.Errors, 3)
}

func TestValidate_SSLPrivateAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Vhost.SSL = &SSLFiles{Cert: "cert.pem", Private: "key.pem"}

	assert.NoError(t, Validate(cfg))
	assert.Equal(t, "key.pem", cfg.Vhost.SSL.KeyPath())
}
