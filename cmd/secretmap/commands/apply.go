package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/secretmap/internal/config"
	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/internal/execenv"
	"github.com/systmms/secretmap/internal/run"
)

func NewApplyCommand(cfg *config.Config) *cobra.Command {
	var (
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Fetch secrets and print the mapped variables",
		Long: `Fetch every secret in the manifest, project the payload fields into
environment variables, verify database credentials marked with
'verify: true', and check the manifest's vars expectations.

The resulting variable set goes to stdout, or with --out to a file created
with owner-only permissions.

Supported formats:
  dotenv   KEY=value lines (default)
  shell    export lines, suitable for eval
  json     a JSON object

Examples:
  secretmap apply
  secretmap apply --format shell
  secretmap apply --out .env.production --format dotenv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderFormat, err := execenv.ParseFormat(format)
			if err != nil {
				return err
			}

			if err := cfg.Load(); err != nil {
				return err
			}

			runner := run.New(cfg, newRegistry(cfg))
			outcome, err := runner.Apply(cmd.Context())
			if err != nil {
				return err
			}

			variables := outcome.Variables()
			cfg.Logger.Info("Mapped %d variables from %d secrets", len(variables), len(outcome.Results))

			if outputPath == "" {
				return execenv.Render(cmd.OutOrStdout(), variables, renderFormat)
			}

			var buf bytes.Buffer
			if err := execenv.Render(&buf, variables, renderFormat); err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, buf.Bytes(), 0o600); err != nil {
				return smerrors.UserError{
					Message:    fmt.Sprintf("Failed to write %s", outputPath),
					Details:    err.Error(),
					Suggestion: "Check the path and directory permissions",
					Err:        err,
				}
			}

			cfg.Logger.Warn("File contains secrets - ensure it's added to .gitignore")
			return nil
		},
	}

	cmd.Flags().StringVar(&outputPath, "out", "", "Write to a file instead of stdout (created 0600)")
	cmd.Flags().StringVar(&format, "format", "dotenv", "Output format (dotenv|shell|json)")

	return cmd
}
