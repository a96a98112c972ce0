package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"posterforge/pkg/config"
)

func TestInit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "posterforge.log")

	cfg := &config.LogConfig{Path: logPath, Level: "DEBUG"}

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("log file not created")
	}
}

func TestInit_RotatesExisting(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "posterforge.log")
	if err := os.WriteFile(logPath, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cleanup, err := Init(&config.LogConfig{Path: logPath, Level: "INFO"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	old, err := os.ReadFile(logPath + ".old")
	if err != nil {
		t.Fatalf("rotated file missing: %v", err)
	}
	if string(old) != "previous run\n" {
		t.Errorf("rotated content = %q", string(old))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"garbage", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
