package obslog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "coach.log")
	logger, err := New(Settings{Level: zapcore.InfoLevel, Format: "json", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("bot_move", zap.String("game_id", "g1"))
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug level, got %q", b)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "bot_move" || entry["game_id"] != "g1" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestLegacyFormatUsesPipeSeparator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.log")
	logger, err := New(Settings{Level: zapcore.DebugLevel, Format: "???", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Warn("stale_recommendation")
	_ = logger.Sync()
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), " | WARN | ") {
		t.Fatalf("expected legacy layout, got %q", b)
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_CALLER", "")
	s := SettingsFromEnv()
	if s.Level != zapcore.DebugLevel || s.Format != "json" || s.Console || s.File != "" {
		t.Fatalf("unexpected settings %+v", s)
	}

	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_LEVEL", "loud")
	s = SettingsFromEnv()
	if s.File != filepath.Join("logs", "coach.log") || s.Level != zapcore.InfoLevel {
		t.Fatalf("unexpected defaults %+v", s)
	}
}

func TestGlobalLoggerStartsAsNop(t *testing.T) {
	if L() == nil {
		t.Fatalf("L() must never be nil")
	}
}
