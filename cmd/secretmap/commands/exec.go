package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/secretmap/internal/config"
	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/internal/execenv"
	"github.com/systmms/secretmap/internal/run"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		printVars        bool
		preserveExisting bool
		workingDir       string
		timeout          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Run a command with mapped variables in its environment",
		Long: `Fetch and map every secret in the manifest, then run the given command
with the variables injected into its environment. Nothing is written to
disk; the child's exit code becomes secretmap's exit code.

The command must be separated from secretmap arguments with '--'.

Examples:
  secretmap exec -- npm start
  secretmap exec --print -- python app.py
  secretmap exec --timeout 5m -- ./deploy.sh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return smerrors.UserError{
					Message:    "No command specified",
					Suggestion: "Use: secretmap exec -- <command> [args...]",
				}
			}

			if err := cfg.Load(); err != nil {
				return smerrors.UserError{
					Message:    "Failed to load configuration",
					Details:    err.Error(),
					Suggestion: "Check that secretmap.yaml exists and is valid YAML",
					Err:        err,
				}
			}

			runner := run.New(cfg, newRegistry(cfg))
			outcome, err := runner.Apply(cmd.Context())
			if err != nil {
				return err
			}

			variables := outcome.Variables()
			cfg.Logger.Info("Mapped %d environment variables", len(variables))

			executor := execenv.New(cfg.Logger)
			return executor.Exec(cmd.Context(), execenv.Options{
				Command:          args,
				Variables:        variables,
				PreserveExisting: preserveExisting,
				PrintVars:        printVars,
				WorkingDir:       workingDir,
				Timeout:          timeout,
			})
		},
	}

	cmd.Flags().BoolVar(&printVars, "print", false, "Print mapped variables (values masked)")
	cmd.Flags().BoolVar(&preserveExisting, "preserve-existing", false, "Keep inherited environment variables instead of overwriting them")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the command")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Command timeout (0 for none)")

	return cmd
}
