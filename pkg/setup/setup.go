// Package setup prepares the filesystem before the gateway starts.
package setup

import (
	"fmt"
	"os"

	"github.com/amiddy/amiddy/pkg/config"
)

// ErrorReporter receives bootstrap failures.
type ErrorReporter interface {
	Error(message, category string)
}

// Init creates the recorder output directory. When it cannot be created
// the failure is reported and recording is switched off, so the gateway
// still starts.
func Init(cfg *config.Config, report ErrorReporter) {
	rec := &cfg.Options.Recorder
	if !rec.Enabled || rec.Path == "" {
		return
	}

	if err := os.MkdirAll(rec.Path, 0o755); err != nil {
		report.Error(fmt.Sprintf("cannot create recorder directory %s, recording disabled: %v", rec.Path, err), "setup")
		rec.Enabled = false
	}
}
