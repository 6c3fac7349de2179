package cli

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amiddy/amiddy/pkg/config"
	"github.com/amiddy/amiddy/pkg/logging"
	"github.com/amiddy/amiddy/pkg/server"
	"github.com/amiddy/amiddy/pkg/setup"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Options.Log, cmd.ErrOrStderr())
	report := logging.NewReporter(cmd.OutOrStdout(), logger)

	if data, err := json.Marshal(cfg); err == nil {
		logger.Debug("effective configuration", "config", string(data))
	}

	setup.Init(cfg, report)

	srv, err := server.New(cfg, report, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

// newLogger combines the configured log options with the command line
// flags, which take precedence.
func newLogger(opts config.LogOptions, out io.Writer) *slog.Logger {
	cfg := logging.DefaultConfig()
	cfg.Output = out
	cfg.Level = logging.ParseLevel(opts.Level)
	cfg.Format = logging.ParseFormat(opts.Format)
	cfg.File = opts.File

	if debug {
		cfg.Level = logging.LevelDebug
	}
	if logFormat != "" {
		cfg.Format = logging.ParseFormat(logFormat)
	}
	if logFile != "" {
		cfg.File = logFile
	}
	return logging.New(cfg)
}
