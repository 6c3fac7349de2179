package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amiddy/amiddy/pkg/cli/internal/output"
	"github.com/amiddy/amiddy/pkg/config"
)

// ValidateOutput is the JSON form of the validate result.
type ValidateOutput struct {
	Valid  bool     `json:"valid"`
	Path   string   `json:"path"`
	Errors []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file without starting the proxy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolvePath(configPath)
		result := ValidateOutput{Valid: true, Path: path}

		cfg, err := config.Load(path)
		if err != nil {
			result.Valid = false
			var vr *config.ValidationResult
			if errors.As(err, &vr) {
				for _, e := range vr.Errors {
					result.Errors = append(result.Errors, e.Error())
				}
			} else {
				result.Errors = []string{err.Error()}
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := output.JSON(out, result); err != nil {
				return err
			}
		} else if result.Valid {
			fmt.Fprintf(out, "%s is valid\n", path)
			fmt.Fprintf(out, "  vhost: %s:%d\n", cfg.Vhost.Name, cfg.Vhost.Port)
			fmt.Fprintf(out, "  dependencies: %d\n", len(cfg.Deps))
			if cfg.Vhost.Port < 1024 {
				output.Warn(cmd.ErrOrStderr(), "port %d usually needs elevated privileges", cfg.Vhost.Port)
			}
		} else {
			fmt.Fprintf(out, "%s is invalid:\n", path)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  - %s\n", e)
			}
		}

		if !result.Valid {
			return errors.New("configuration is invalid")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
