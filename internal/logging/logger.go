package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Logger prints human-oriented status lines with redaction support. Output
// goes to stderr by default so rendered variables on stdout stay
// machine-readable.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	debug   bool
	noColor bool
}

// New creates a logger writing to stderr.
func New(debug, noColor bool) *Logger {
	return NewWithWriter(os.Stderr, debug, noColor)
}

// NewWithWriter creates a logger writing to out. Tests use this to capture
// output without touching os.Stderr.
func NewWithWriter(out io.Writer, debug, noColor bool) *Logger {
	return &Logger{
		out:     out,
		debug:   debug,
		noColor: noColor,
	}
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...any) {
	l.emit("32", "✓", format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...any) {
	l.emit("33", "⚠", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.emit("31", "✗", format, args...)
}

// Debug logs a debug message if debug mode is enabled
func (l *Logger) Debug(format string, args ...any) {
	if !l.debug {
		return
	}
	l.emit("36", "[DEBUG]", format, args...)
}

// emit serializes writes; secrets are fetched concurrently and their log
// lines must not interleave.
func (l *Logger) emit(color, glyph, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.noColor {
		fmt.Fprintf(l.out, "%s %s\n", glyph, msg)
		return
	}
	fmt.Fprintf(l.out, "\033[%sm%s\033[0m %s\n", color, glyph, msg)
}

// Secret represents a value that should be redacted in logs
type Secret string

// String implements the Stringer interface, always returning a redacted value
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED]
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if secret != "" && len(secret) > 3 { // Only redact non-trivial secrets
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
