package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/secretmap/internal/config"
	"github.com/systmms/secretmap/internal/sources"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var checkAll bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check source connectivity and configuration",
		Long: `Verify that the manifest loads and that every source it references is
reachable with the configured credentials.

With --all, every supported source scheme is checked instead of only the
ones the manifest uses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg.Logger.Info("Checking secretmap configuration...")
			if err := cfg.Load(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.Logger.Info("✓ Manifest loaded: %d secrets", len(cfg.Manifest.Secrets))

			registry := newRegistry(cfg)

			schemes := manifestSchemes(cfg.Manifest)
			if checkAll {
				schemes = registry.Schemes()
			}
			if len(schemes) == 0 {
				cfg.Logger.Info("Manifest references no sources; nothing to check")
				return nil
			}

			results := make([]sourceHealth, 0, len(schemes))
			for _, scheme := range schemes {
				results = append(results, checkSource(cmd.Context(), cfg, registry, scheme))
			}

			displayHealthResults(out, results)

			healthy := 0
			for _, result := range results {
				if result.Err == nil {
					healthy++
				}
			}

			fmt.Fprintf(out, "\nSummary: %d/%d sources healthy\n", healthy, len(results))
			if healthy < len(results) {
				return fmt.Errorf("some sources are not healthy")
			}

			cfg.Logger.Info("✓ All systems operational!")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkAll, "all", false, "Check every supported source, not just the ones the manifest uses")

	return cmd
}

// sourceHealth is the outcome of one source connectivity check.
type sourceHealth struct {
	Scheme string
	Err    error
}

// checkSource builds the source and runs its health check with the
// manifest's fetch timeout.
func checkSource(ctx context.Context, cfg *config.Config, registry *sources.Registry, scheme string) sourceHealth {
	health := sourceHealth{Scheme: scheme}

	src, err := registry.Get(scheme)
	if err != nil {
		health.Err = err
		return health
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Manifest.Defaults.FetchTimeout())
	defer cancel()

	health.Err = src.Healthy(ctx)
	return health
}

// displayHealthResults shows source health in a formatted table.
func displayHealthResults(out io.Writer, results []sourceHealth) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "SOURCE\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "------\t------\t-------\n")

	for _, result := range results {
		status := "✓ healthy"
		message := "Source is ready"
		if result.Err != nil {
			status = "✗ error"
			message = result.Err.Error()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", result.Scheme, status, message)
	}

	_ = w.Flush()
}
