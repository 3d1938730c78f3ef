package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/secretmap/cmd/secretmap/commands"
	"github.com/systmms/secretmap/internal/config"
	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/internal/logging"
	"github.com/systmms/secretmap/internal/metrics"
	"github.com/systmms/secretmap/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()

	// os.Exit skips deferred calls, so wipe the secret enclaves explicitly
	// before any exit path.
	secure.Purge()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", smerrors.SimplifyError(err))

		// A child process launched by 'exec' reports its exit code here;
		// pass it through so wrappers and CI see the real status.
		var cmdErr smerrors.CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode != 0 {
			os.Exit(cmdErr.ExitCode)
		}
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "secretmap",
		Short: "Map secrets from your vaults into environment variables",
		Long: `secretmap fetches secrets from cloud secret managers, decodes their
payloads, and maps the decoded fields into environment variables for
rendering .env files or launching commands with an ephemeral environment.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.Path = configFile
			cfg.Logger = logger
			cfg.NonInteractive = nonInteractive

			metrics.Init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "secretmap.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")

	// Add commands
	rootCmd.AddCommand(
		commands.NewApplyCommand(cfg),
		commands.NewPlanCommand(cfg),
		commands.NewExecCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
