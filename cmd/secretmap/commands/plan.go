package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/secretmap/internal/config"
	"github.com/systmms/secretmap/internal/run"
)

func NewPlanCommand(cfg *config.Config) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what would be mapped, without fetching any value",
		Long: `Plan lists each manifest secret with its kind, source scheme and the
variables it would write. No source is contacted and no value is shown,
which makes it safe for debugging manifests anywhere.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			runner := run.New(cfg, newRegistry(cfg))
			planned := runner.Plan()

			if outputJSON {
				return outputPlanJSON(cmd.OutOrStdout(), planned)
			}
			return outputPlanTable(cmd.OutOrStdout(), planned)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

// planEntry is the JSON shape for one planned secret.
type planEntry struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Scheme    string   `json:"scheme,omitempty"`
	Optional  bool     `json:"optional,omitempty"`
	Verify    bool     `json:"verify,omitempty"`
	Variables []string `json:"variables"`
	Error     string   `json:"error,omitempty"`
}

func outputPlanJSON(w io.Writer, planned []run.PlannedSecret) error {
	entries := make([]planEntry, 0, len(planned))
	errorCount := 0
	for _, p := range planned {
		entry := planEntry{
			Name:      p.Name,
			Kind:      p.Kind.String(),
			Scheme:    p.Scheme,
			Optional:  p.Optional,
			Verify:    p.Verify,
			Variables: p.Variables,
		}
		if p.Err != nil {
			entry.Error = p.Err.Error()
			errorCount++
		}
		entries = append(entries, entry)
	}

	output := map[string]any{
		"secrets": entries,
		"summary": map[string]any{
			"total_secrets": len(planned),
			"error_count":   errorCount,
		},
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputPlanTable(out io.Writer, planned []run.PlannedSecret) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "SECRET\tKIND\tSOURCE\tVARIABLES\tFLAGS\tSTATUS\n")
	_, _ = fmt.Fprintf(w, "------\t----\t------\t---------\t-----\t------\n")

	errorCount := 0
	for _, p := range planned {
		status := "✓ OK"
		if p.Err != nil {
			status = "✗ ERROR"
			errorCount++
		}

		var flags []string
		if p.Optional {
			flags = append(flags, "optional")
		}
		if p.Verify {
			flags = append(flags, "verify")
		}
		flagCol := strings.Join(flags, ",")
		if flagCol == "" {
			flagCol = "-"
		}

		scheme := p.Scheme
		if scheme == "" {
			scheme = "?"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name,
			p.Kind,
			scheme,
			strings.Join(p.Variables, ","),
			flagCol,
			status,
		)
	}

	_ = w.Flush()

	fmt.Fprintf(out, "\nSummary:\n")
	fmt.Fprintf(out, "  Total secrets: %d\n", len(planned))
	fmt.Fprintf(out, "  Ready to map: %d\n", len(planned)-errorCount)

	if errorCount > 0 {
		fmt.Fprintf(out, "  Errors: %d\n", errorCount)
		fmt.Fprintf(out, "\nErrors:\n")
		for _, p := range planned {
			if p.Err != nil {
				fmt.Fprintf(out, "  ✗ %s: %s\n", p.Name, p.Err.Error())
			}
		}
		fmt.Fprintf(out, "\nNext steps:\n")
		fmt.Fprintf(out, "  • Fix the manifest errors and try again\n")
		fmt.Fprintf(out, "  • Run 'secretmap doctor' to check source connectivity\n")
		return fmt.Errorf("plan completed with %d errors", errorCount)
	}

	fmt.Fprintf(out, "\n✓ All secrets ready to map!\n")
	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "  • Run 'secretmap exec -- <command>' to run with the variables\n")
	fmt.Fprintf(out, "  • Run 'secretmap apply --out .env' to render an env file\n")

	return nil
}
