package execenv

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Format identifies an output rendering for the variable set.
type Format string

// The supported render formats.
const (
	FormatDotenv Format = "dotenv"
	FormatShell  Format = "shell"
	FormatJSON   Format = "json"
)

// ParseFormat converts a flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatDotenv:
		return FormatDotenv, nil
	case FormatShell:
		return FormatShell, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected %s, %s, or %s)",
		s, FormatDotenv, FormatShell, FormatJSON)
}

// Render writes the variables in the requested format, sorted by name.
func Render(w io.Writer, variables map[string]string, format Format) error {
	keys := make([]string, 0, len(variables))
	for key := range variables {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	switch format {
	case FormatDotenv:
		for _, key := range keys {
			if _, err := fmt.Fprintf(w, "%s=%s\n", key, dotenvValue(variables[key])); err != nil {
				return err
			}
		}
	case FormatShell:
		for _, key := range keys {
			if _, err := fmt.Fprintf(w, "export %s=%s\n", key, shellQuote(variables[key])); err != nil {
				return err
			}
		}
	case FormatJSON:
		data, err := json.MarshalIndent(variables, "", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

// dotenvValue quotes a value when it would break the KEY=value line format.
func dotenvValue(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t\n\r\"'#\\") {
		return strconv.Quote(value)
	}
	return value
}

// shellQuote single-quotes a value for POSIX shells.
func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
