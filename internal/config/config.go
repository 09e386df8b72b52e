package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	BotDelayMS    int `yaml:"bot_delay_ms"`
	SessionTTLSec int `yaml:"session_ttl_sec"`
	HistoryLimit  int `yaml:"history_limit"`
	// RandomSeed fixes the evaluator jitter; zero seeds from the clock.
	RandomSeed int64 `yaml:"random_seed"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	LLMBaseURL    string `yaml:"llm_base_url"`
	LLMAPIKey     string `yaml:"llm_api_key"`
	LLMModel      string `yaml:"llm_model"`
	LLMTimeoutSec int    `yaml:"llm_timeout_sec"`

	MsgcatDir string `yaml:"msgcat_dir"`
}

func defaults() *AppConfig {
	return &AppConfig{
		HTTPAddr:      ":8080",
		BotDelayMS:    1500,
		SessionTTLSec: 3600,
		HistoryLimit:  10,
		LLMModel:      "gpt-4o-mini",
		LLMTimeoutSec: 20,
	}
}

func (c *AppConfig) BotDelay() time.Duration {
	return time.Duration(c.BotDelayMS) * time.Millisecond
}

func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

func (c *AppConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSec) * time.Second
}

// Load reads COACH_CONFIG_FILE first when set, then lets the environment win.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("COACH_CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("BOT_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BotDelayMS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RANDOM_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.RandomSeed = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}

	// LLM
	if v := strings.TrimSpace(os.Getenv("LLM_BASE_URL")); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_API_KEY")); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_MODEL")); v != "" {
		cfg.LLMModel = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLMTimeoutSec = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("MSGCAT_DIR")); v != "" {
		cfg.MsgcatDir = v
	}

	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("HTTP_ADDR is required")
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	overlay := *c
	if err := yaml.Unmarshal(b, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if overlay.BotDelayMS < 0 {
		overlay.BotDelayMS = c.BotDelayMS
	}
	if overlay.SessionTTLSec <= 0 {
		overlay.SessionTTLSec = c.SessionTTLSec
	}
	if overlay.HistoryLimit <= 0 {
		overlay.HistoryLimit = c.HistoryLimit
	}
	if overlay.LLMTimeoutSec <= 0 {
		overlay.LLMTimeoutSec = c.LLMTimeoutSec
	}
	*c = overlay
	return nil
}
