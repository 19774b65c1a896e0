package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger = NewComponentLogger(logger, "reconcile")
	logger.Info("record matched",
		String("record", "player/fbref/1234"),
		Float64("confidence", 0.97),
		Bool("auto", true))

	out := buf.String()
	if !strings.Contains(out, "INFO reconcile: record matched") {
		t.Errorf("missing component prefix: %q", out)
	}
	if !strings.Contains(out, "record=player/fbref/1234") {
		t.Errorf("missing record attr: %q", out)
	}
	if !strings.Contains(out, "confidence=0.97") {
		t.Errorf("missing confidence attr: %q", out)
	}
	if !strings.Contains(out, "auto=true") {
		t.Errorf("missing bool attr: %q", out)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("unparseable birth date", String("birth_date", "not a date"))

	if !strings.Contains(buf.String(), `birth_date="not a date"`) {
		t.Errorf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("expected info below warn to be dropped, got %q", buf.String())
	}
	logger.Error("kept")
	if !strings.Contains(buf.String(), "ERROR kept") {
		t.Errorf("expected error record, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
