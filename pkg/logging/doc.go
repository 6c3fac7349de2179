// Package logging provides the gateway's two log outputs.
//
// New builds a *slog.Logger for structured diagnostics. It writes text or
// JSON to stderr and, when Config.File is set, also JSON records to a
// size-rotated file:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	    File:   "amiddy.log",
//	})
//
// Reporter is the human facing console output: one colored line per answered
// request plus categorised error and success messages. Every Reporter call
// is mirrored to the structured logger.
//
// Components should accept a *slog.Logger or a *Reporter in their
// constructor. If none is provided, use Nop() or NopReporter().
package logging
