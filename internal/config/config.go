package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int              `json:"port"`
	JWTSecret        string           `json:"jwt_secret"`
	JWTTTLHours      int              `json:"jwt_ttl_hours"`
	RateLimitSeconds int              `json:"rate_limit_seconds"`
	CORSAllowlist    []string         `json:"cors_allowlist"`
	LogConfig        logger.LogConfig `json:"log_config"`
	Database         DatabaseConfig   `json:"database"`
	ContextStore     StoreConfig      `json:"context_store"`
	AI               AIConfig         `json:"ai"`
	Pipeline         PipelineConfig   `json:"pipeline"`
	EmbedCache       EmbedCacheConfig `json:"embed_cache"`
	Dataset          DatasetConfig    `json:"dataset"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type StoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Chat          []ProviderConfig `json:"chat"`
	Embed         []ProviderConfig `json:"embed"`
	Dimension     int              `json:"dimension"`
	Timeout       int              `json:"timeout"`
	MaxInputChars int              `json:"max_input_chars"`
}

type PipelineConfig struct {
	CacheThreshold   float32 `json:"cache_threshold"`
	ContextThreshold float32 `json:"context_threshold"`
	ContextLimit     int     `json:"context_limit"`
	HistoryLimit     int     `json:"history_limit"`
	Temperature      float32 `json:"temperature"`
	StrictContext    *bool   `json:"strict_context"`
	SystemPrompt     string  `json:"system_prompt"`
}

type EmbedCacheConfig struct {
	LRUSize       int    `json:"lru_size"`
	LRUTTLMinutes int    `json:"lru_ttl_minutes"`
	EnableDB      bool   `json:"enable_db"`
	MaxAgeDays    int    `json:"max_age_days"`
	CleanupCron   string `json:"cleanup_cron"`
	StatsCron     string `json:"stats_cron"`
}

type DatasetConfig struct {
	Source    StoreConfig `json:"source"`
	BatchSize int         `json:"batch_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.fill(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) fill() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if len(cfg.AI.Chat) == 0 {
		return fmt.Errorf("ai.chat requires at least one provider")
	}
	if len(cfg.AI.Embed) == 0 {
		return fmt.Errorf("ai.embed requires at least one provider")
	}
	for i, p := range cfg.AI.Chat {
		if p.Provider == "" || p.Model == "" {
			return fmt.Errorf("ai.chat[%d] provider/model are required", i)
		}
	}
	for i, p := range cfg.AI.Embed {
		if p.Provider == "" || p.Model == "" {
			return fmt.Errorf("ai.embed[%d] provider/model are required", i)
		}
	}
	if cfg.AI.Dimension <= 0 {
		cfg.AI.Dimension = 1536
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.RateLimitSeconds == 0 {
		cfg.RateLimitSeconds = 2
	}
	if cfg.RateLimitSeconds < 0 {
		cfg.RateLimitSeconds = 0
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.ContextStore.Type == "" {
		cfg.ContextStore.Type = "postgres"
	}
	if cfg.Pipeline.CacheThreshold == 0 {
		cfg.Pipeline.CacheThreshold = 0.97
	}
	if cfg.Pipeline.CacheThreshold < 0 || cfg.Pipeline.CacheThreshold >= 1 {
		return fmt.Errorf("pipeline.cache_threshold must be in [0, 1)")
	}
	if cfg.Pipeline.ContextThreshold == 0 {
		cfg.Pipeline.ContextThreshold = 0.5
	}
	if cfg.Pipeline.ContextThreshold < 0 || cfg.Pipeline.ContextThreshold >= 1 {
		return fmt.Errorf("pipeline.context_threshold must be in [0, 1)")
	}
	if cfg.Pipeline.ContextLimit <= 0 {
		cfg.Pipeline.ContextLimit = 4
	}
	if cfg.Pipeline.HistoryLimit <= 0 {
		cfg.Pipeline.HistoryLimit = 3
	}
	if cfg.Pipeline.Temperature == 0 {
		cfg.Pipeline.Temperature = 0.3
	}
	if cfg.Pipeline.StrictContext == nil {
		strict := true
		cfg.Pipeline.StrictContext = &strict
	}
	if cfg.EmbedCache.LRUSize == 0 {
		cfg.EmbedCache.LRUSize = 4096
	}
	if cfg.EmbedCache.LRUTTLMinutes == 0 {
		cfg.EmbedCache.LRUTTLMinutes = 120
	}
	if cfg.EmbedCache.MaxAgeDays == 0 {
		cfg.EmbedCache.MaxAgeDays = 30
	}
	if cfg.EmbedCache.CleanupCron == "" {
		cfg.EmbedCache.CleanupCron = "30 3 * * *"
	}
	if cfg.EmbedCache.StatsCron == "" {
		cfg.EmbedCache.StatsCron = "0 * * * *"
	}
	if cfg.Dataset.BatchSize <= 0 {
		cfg.Dataset.BatchSize = 50
	}
	return nil
}
