package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig wraps every validation failure returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError is a single problem found in a configuration.
type ValidationError struct {
	Path    string // e.g. "deps[1].port"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult collects every problem found in a configuration.
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns all messages joined by newlines.
func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, " \n")
}

// Unwrap lets callers test results with errors.Is(err, ErrInvalidConfig).
func (r *ValidationResult) Unwrap() error {
	return ErrInvalidConfig
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

// Validate checks that cfg can be served. Missing vhost or deps stop
// validation immediately; dependency problems are all collected.
func Validate(cfg *Config) error {
	result := &ValidationResult{}

	if cfg.Vhost == nil {
		result.AddError("", "Missing `vhost` property")
		return result
	}
	if cfg.Vhost.Name == "" {
		result.AddError("", "Missing `vhost.name` property")
		return result
	}
	validatePort(cfg.Vhost.Port, "vhost.port", result)
	if ssl := cfg.Vhost.SSL; ssl != nil && (ssl.Cert == "" || ssl.KeyPath() == "") {
		result.AddError("vhost.ssl", "both cert and key (or private) must be set")
	}

	if cfg.Source != nil {
		validatePort(cfg.Source.Port, "source.port", result)
		validateMocks(cfg.Source.Mocks, "source", result)
	}

	if cfg.Deps == nil {
		result.AddError("", "Missing `deps` property")
		return result
	}

	for i, dep := range cfg.Deps {
		if dep == nil {
			continue
		}
		if dep.IP == "" && dep.Name == "" {
			result.AddError("", fmt.Sprintf("Dependency with index %d is missing \"ip\" or \"name\"", i))
		}
		if len(dep.Patterns) < 1 {
			result.AddError("", fmt.Sprintf("Dependency with index %d should have patterns defined as array of strings", i))
		}
		path := fmt.Sprintf("deps[%d]", i)
		validatePort(dep.Port, path+".port", result)
		validateMocks(dep.Mocks, path, result)
	}

	if !result.IsValid() {
		return result
	}
	return nil
}

func validatePort(port int, path string, result *ValidationResult) {
	if port < 0 || port > 65535 {
		result.AddError(path, fmt.Sprintf("port %d out of range 0-65535", port))
	}
}

func validateMocks(mocks []*MockRule, owner string, result *ValidationResult) {
	for i, mock := range mocks {
		if mock == nil {
			continue
		}
		if mock.Status != 0 && (mock.Status < 100 || mock.Status > 599) {
			result.AddError(fmt.Sprintf("%s.mocks[%d].status", owner, i), fmt.Sprintf("status %d is not a valid HTTP status", mock.Status))
		}
	}
}
