package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/amiddy/amiddy/pkg/fileio"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidJSON  = errors.New("invalid JSON syntax")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrEmptyFile    = errors.New("configuration file is empty")
)

// EnvConfigPath names the environment variable consulted when no path is given.
const EnvConfigPath = "AMIDDY_CONFIG"

// Format is a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return FormatYAML
	}
	return FormatJSON
}

// ResolvePath returns path, or the AMIDDY_CONFIG value, or DefaultPath.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads, validates and defaults the configuration at path.
func Load(path string) (*Config, error) {
	path = ResolvePath(path)

	abs, err := fileio.AbsolutePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}

	content, err := fileio.Read(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", abs, err)
	}

	cfg, err := Parse([]byte(content), FormatFor(abs))
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", abs, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	SetDefaults(cfg)

	return cfg, nil
}

// Parse decodes raw configuration bytes after environment substitution.
// It neither validates nor applies defaults.
func Parse(data []byte, format Format) (*Config, error) {
	expanded := ExpandEnvVars(string(data))
	if strings.TrimSpace(expanded) == "" {
		return nil, ErrEmptyFile
	}

	var cfg Config
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
		}
	default:
		stripped := jsonc.ToJSON([]byte(expanded))
		if err := json.Unmarshal(stripped, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
	}

	return &cfg, nil
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}
