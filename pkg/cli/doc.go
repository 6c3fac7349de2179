// Package cli provides the command-line interface for amiddy.
//
// Commands:
//   - amiddy: load the configuration and serve the virtual host (default)
//   - validate: load and validate the configuration without serving
//   - version: show build information
//
// Global flags:
//   - -c, --config: configuration file (default .amiddy, or $AMIDDY_CONFIG)
//   - -d, --debug: debug logging
//   - --log-format: text or json
//   - --log-file: also write JSON logs to a rotated file
//   - --json: machine readable output for validate and version
package cli
