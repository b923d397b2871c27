package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	LLMBaseURL    string `yaml:"llm_base_url"`
	LLMAPIKey     string `yaml:"llm_api_key"`
	WhiteModel    string `yaml:"white_model"`
	BlackModel    string `yaml:"black_model"`
	MoveProtocol  string `yaml:"move_protocol"` // "auto" or "pgn"
	LLMTimeoutSec int    `yaml:"llm_timeout_sec"`
	LLMMaxTokens  int    `yaml:"llm_max_tokens"`

	StockfishPath  string `yaml:"stockfish_path"`
	EvalDepth      int    `yaml:"eval_depth"`
	EvalTimeoutMil int    `yaml:"eval_timeout_ms"`

	RedisURL      string `yaml:"redis_url"`
	SessionTTLSec int    `yaml:"session_ttl_sec"`

	DatabaseURL string `yaml:"database_url"`
}

// Load reads the optional YAML file named by ARENA_CONFIG, then applies
// environment overrides on top, then validates.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:     ":8080",
		WhiteModel:     "gpt-4o",
		BlackModel:     "gpt-4o",
		MoveProtocol:   "auto",
		LLMTimeoutSec:  60,
		LLMMaxTokens:   2000,
		EvalDepth:      12,
		EvalTimeoutMil: 3000,
		SessionTTLSec:  3600,
	}

	if path := strings.TrimSpace(os.Getenv("ARENA_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyString(&cfg.ListenAddr, "ARENA_LISTEN_ADDR")
	applyString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	applyString(&cfg.LLMAPIKey, "LLM_API_KEY")
	applyString(&cfg.WhiteModel, "ARENA_WHITE_MODEL")
	applyString(&cfg.BlackModel, "ARENA_BLACK_MODEL")
	applyString(&cfg.MoveProtocol, "ARENA_MOVE_PROTOCOL")
	applyInt(&cfg.LLMTimeoutSec, "LLM_TIMEOUT_SEC")
	applyInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")

	applyString(&cfg.StockfishPath, "STOCKFISH_PATH")
	applyInt(&cfg.EvalDepth, "ARENA_EVAL_DEPTH")
	applyInt(&cfg.EvalTimeoutMil, "ARENA_EVAL_TIMEOUT_MS")

	applyString(&cfg.RedisURL, "REDIS_URL")
	applyInt(&cfg.SessionTTLSec, "ARENA_SESSION_TTL")
	applyString(&cfg.DatabaseURL, "DATABASE_URL")

	cfg.MoveProtocol = strings.ToLower(strings.TrimSpace(cfg.MoveProtocol))
	switch cfg.MoveProtocol {
	case "", "auto":
		cfg.MoveProtocol = "auto"
	case "pgn":
	default:
		return nil, fmt.Errorf("unknown move protocol %q (want auto or pgn)", cfg.MoveProtocol)
	}

	if cfg.LLMBaseURL == "" {
		return nil, errors.New("LLM_BASE_URL is required")
	}
	if cfg.LLMAPIKey == "" {
		return nil, errors.New("LLM_API_KEY is required")
	}

	return cfg, nil
}

func applyString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func applyInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
