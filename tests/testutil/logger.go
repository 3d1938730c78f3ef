package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/secretmap/internal/logging"
)

// CapturedLogger is a logging.Logger wired to an in-memory buffer so tests
// can assert on (redacted) log output.
//
// Example usage:
//
//	lg := testutil.NewCapturedLogger(false)
//	lg.Info("password is %s", logging.Secret("hunter2"))
//	lg.AssertContains(t, "[REDACTED]")
//	lg.AssertNotContains(t, "hunter2")
type CapturedLogger struct {
	*logging.Logger
	buf *bytes.Buffer
}

// NewCapturedLogger creates a capture logger. Debug lines are recorded only
// when debug is true.
func NewCapturedLogger(debug bool) *CapturedLogger {
	buf := &bytes.Buffer{}
	return &CapturedLogger{
		Logger: logging.NewWithWriter(buf, debug, true),
		buf:    buf,
	}
}

// Output returns everything logged so far.
func (l *CapturedLogger) Output() string {
	return l.buf.String()
}

// AssertContains fails the test if the captured output lacks substr.
func (l *CapturedLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.Output(), substr)
}

// AssertNotContains fails the test if the captured output carries substr.
func (l *CapturedLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.Output(), substr)
}
