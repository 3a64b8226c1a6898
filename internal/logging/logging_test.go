package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"capture-chat/internal/config"
)

func TestNewWritesToLogFile(t *testing.T) {
	cfg := config.Defaults(t.TempDir())
	cfg.LogPath = filepath.Join(cfg.Home, "logs", "capture.log")
	cfg.Verbose = true

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("turn complete")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "turn complete") {
		t.Fatalf("expected debug line in log, got %q", string(data))
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	cfg := config.Defaults(t.TempDir())
	cfg.LogLevel = "chatty"
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
