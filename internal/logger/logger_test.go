package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecoquest-service/internal/config"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecoquest.log")
	log, err := New("production", config.Log{Level: "debug", File: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Debug("quiz session started")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"quiz session started"`) {
		t.Fatalf("expected JSON entry in file, got %q", data)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("local", config.Log{Level: "chatty"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
