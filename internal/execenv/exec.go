// Package execenv runs child processes with mapped variables injected into
// their environment. Variables are merged over the inherited environment and
// the child's exit code is surfaced to the caller instead of being swallowed.
package execenv

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/internal/logging"
)

// Executor runs commands with mapped environment variables.
type Executor struct {
	logger *logging.Logger
	out    io.Writer
}

// ExecutorOption adjusts an Executor.
type ExecutorOption func(*Executor)

// WithOutput redirects the executor's own output and the child's stdout.
func WithOutput(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.out = w
	}
}

// New creates an executor writing to stdout.
func New(logger *logging.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger: logger,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options configures one command execution.
type Options struct {
	Command          []string          // Command and arguments to run
	Variables        map[string]string // Mapped variables to inject
	PreserveExisting bool              // Inherited values win over mapped ones
	PrintVars        bool              // Print variable names with masked values
	WorkingDir       string            // Working directory for the command
	Timeout          time.Duration     // Zero means no timeout
}

// Exec runs the command with the mapped variables merged into its
// environment. A non-zero child exit comes back as a CommandError carrying
// the exit code, so callers can propagate it without os.Exit happening here.
func (e *Executor) Exec(ctx context.Context, options Options) error {
	if len(options.Command) == 0 {
		return smerrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., secretmap exec -- npm start)",
		}
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	cmdName := options.Command[0]
	if _, err := exec.LookPath(cmdName); err != nil {
		return smerrors.WrapCommandNotFound(cmdName, err)
	}

	if options.PrintVars {
		e.printVariables(options.Variables)
	}

	cmd := exec.CommandContext(ctx, cmdName, options.Command[1:]...)
	cmd.Env = Environment(options.Variables, options.PreserveExisting)
	cmd.Stdout = e.out
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	e.logger.Debug("Executing command: %s", strings.Join(options.Command, " "))
	e.logger.Debug("Variables injected: %d", len(options.Variables))

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return smerrors.CommandError{
				Command:  strings.Join(options.Command, " "),
				ExitCode: exitErr.ExitCode(),
				Message:  "child process exited with an error",
			}
		}
		return smerrors.CommandError{
			Command:    strings.Join(options.Command, " "),
			Message:    err.Error(),
			Suggestion: "Check the command output above for details",
		}
	}

	return nil
}

// Environment merges the mapped variables over the inherited environment and
// returns a sorted KEY=value slice. With preserveExisting, an inherited
// variable keeps its value and the mapped one is ignored.
func Environment(variables map[string]string, preserveExisting bool) []string {
	envMap := make(map[string]string)
	for _, entry := range os.Environ() {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	for key, value := range variables {
		if preserveExisting {
			if _, exists := envMap[key]; exists {
				continue
			}
		}
		envMap[key] = value
	}

	result := make([]string, 0, len(envMap))
	for key, value := range envMap {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(result)
	return result
}

// printVariables lists the mapped variable names with masked values.
func (e *Executor) printVariables(variables map[string]string) {
	if len(variables) == 0 {
		fmt.Fprintln(e.out, "No variables mapped")
		return
	}

	fmt.Fprintf(e.out, "Mapped %d environment variables:\n", len(variables))

	keys := make([]string, 0, len(variables))
	for key := range variables {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(e.out, "  %s=%s\n", key, maskValue(variables[key]))
	}
	fmt.Fprintln(e.out)
}

// maskValue hides a secret value, keeping just enough to recognize it.
func maskValue(value string) string {
	if len(value) == 0 {
		return "(empty)"
	}
	if len(value) <= 3 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
	}
	return value[:3] + strings.Repeat("*", 8) + value[len(value)-2:]
}
