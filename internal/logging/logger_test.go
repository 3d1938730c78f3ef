package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestLoggerGlyphs(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *Logger)
		glyph string
	}{
		{name: "info", log: func(l *Logger) { l.Info("hello") }, glyph: "✓"},
		{name: "warn", log: func(l *Logger) { l.Warn("hello") }, glyph: "⚠"},
		{name: "error", log: func(l *Logger) { l.Error("hello") }, glyph: "✗"},
		{name: "debug", log: func(l *Logger) { l.Debug("hello") }, glyph: "[DEBUG]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, true, true)

			tt.log(logger)

			got := buf.String()
			if !strings.HasPrefix(got, tt.glyph+" hello") {
				t.Errorf("output = %q, want prefix %q", got, tt.glyph+" hello")
			}
			if strings.Contains(got, "\033[") {
				t.Errorf("output = %q, want no ANSI codes with color disabled", got)
			}
		})
	}
}

func TestLoggerColorCodes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, false)

	logger.Error("boom")

	got := buf.String()
	if !strings.Contains(got, "\033[31m✗\033[0m boom") {
		t.Errorf("output = %q, want red glyph", got)
	}
}

func TestLoggerDebugSuppressed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Debug("invisible")

	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing when debug is off", buf.String())
	}
}

func TestLoggerDefaultWritesToStderr(t *testing.T) {
	logger := New(false, true)
	if logger.out == nil {
		t.Fatal("default logger has no writer")
	}
}

func TestLoggerConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("line from a worker goroutine")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		if line != "✓ line from a worker goroutine" {
			t.Errorf("interleaved line: %q", line)
		}
	}
}
