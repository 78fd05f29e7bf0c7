package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger == Default() {
		t.Error("Default() returned the same instance twice")
	}
}

func TestComponentTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf).Component("availability")
	logger.Info("slots generated", "count", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["component"] != "availability" {
		t.Fatalf("expected component tag, got %v", entry["component"])
	}
	if entry["msg"] != "slots generated" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
}

func TestComponentOnNilLogger(t *testing.T) {
	var logger *Logger
	if logger.Component("x") == nil {
		t.Fatal("expected fallback logger")
	}
}
