package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var envKeys = []string{
	"COACH_CONFIG_FILE", "HTTP_ADDR", "BOT_DELAY_MS", "REDIS_URL", "DATABASE_URL",
	"SESSION_TTL_SEC", "HISTORY_LIMIT", "LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL",
	"LLM_TIMEOUT_SEC", "MSGCAT_DIR", "RANDOM_SEED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(defaults(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.BotDelay() != 1500*time.Millisecond || cfg.SessionTTL() != time.Hour {
		t.Fatalf("unexpected durations %s %s", cfg.BotDelay(), cfg.SessionTTL())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", " 127.0.0.1:9000 ")
	t.Setenv("BOT_DELAY_MS", "0")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("LLM_TIMEOUT_SEC", "nope")
	t.Setenv("SESSION_TTL_SEC", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.BotDelayMS != 0 || cfg.HistoryLimit != 25 || cfg.RandomSeed != 42 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.LLMTimeoutSec != 20 || cfg.SessionTTLSec != 3600 {
		t.Fatalf("invalid values should keep defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "coach.yaml")
	doc := "http_addr: \":7000\"\nllm_model: file-model\nredis_url: redis://file:6379/1\nhistory_limit: 0\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("COACH_CONFIG_FILE", path)
	t.Setenv("LLM_MODEL", "env-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7000" || cfg.RedisURL != "redis://file:6379/1" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.LLMModel != "env-model" {
		t.Fatalf("env should win over file, got %q", cfg.LLMModel)
	}
	if cfg.HistoryLimit != 10 {
		t.Fatalf("zero history limit in file should keep default, got %d", cfg.HistoryLimit)
	}
}

func TestLoadBadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http_addr: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("COACH_CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
	t.Setenv("COACH_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected read error")
	}
}
