package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// Engine configuration
	Engine EngineConfig `json:"engine"`

	// Server configuration
	Server ServerConfig `json:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Chain cache configuration
	Cache CacheConfig `json:"cache"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `json:"rateLimit"`
}

type EngineConfig struct {
	// BoardSize is the default board dimension for new games. Callers may
	// still request a different size per game.
	BoardSize int `json:"boardSize"`
	MaxGames  int `json:"maxGames"`
}

type ServerConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	HealthAddr  string `json:"healthAddr"`
}

type LoggingConfig struct {
	Level  string        `json:"level"`
	Format string        `json:"format"`
	Prefix string        `json:"prefix"`
	File   FileLogConfig `json:"file"`
}

type FileLogConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Compress   bool   `json:"compress"`
}

type CacheConfig struct {
	Enabled  bool  `json:"enabled"`
	MaxItems int   `json:"maxItems"`
	MaxBytes int64 `json:"maxBytes"`
}

type RateLimitConfig struct {
	Enabled        bool           `json:"enabled"`
	RequestsPerMin int            `json:"requestsPerMin"`
	BurstSize      int            `json:"burstSize"`
	PerToolLimits  map[string]int `json:"perToolLimits"`
}

const (
	minBoardSize = 2
	maxBoardSize = 25
)

func Load(configPath string) (*Config, error) {
	cfg := &Config{
		// Default values
		Engine: EngineConfig{
			BoardSize: 19,
			MaxGames:  128,
		},
		Server: ServerConfig{
			Name:        "enjoygo",
			Version:     "0.1.0",
			Description: "Go rules engine server",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Prefix: "[enjoygo] ",
		},
		Cache: CacheConfig{
			Enabled:  true,
			MaxItems: 1024,
			MaxBytes: 1 << 20,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 60,
			BurstSize:      10,
			PerToolLimits:  make(map[string]int),
		},
	}

	// Load from JSON file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	// Engine settings
	if v := os.Getenv("ENJOYGO_BOARD_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.BoardSize = n
		}
	}
	if v := os.Getenv("ENJOYGO_MAX_GAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.MaxGames = n
		}
	}

	// Server settings
	if v := os.Getenv("ENJOYGO_HEALTH_ADDR"); v != "" {
		c.Server.HealthAddr = v
	}

	// Logging settings
	if v := os.Getenv("ENJOYGO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	// Cache settings
	if v := os.Getenv("ENJOYGO_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = strings.ToLower(v) == "true"
	}

	// Rate limit settings
	if v := os.Getenv("ENJOYGO_RATE_LIMIT_ENABLED"); v != "" {
		c.RateLimit.Enabled = strings.ToLower(v) == "true"
	}
}

func (c *Config) validate() error {
	// The board size is a hard error: a bad value would make every new
	// game fail, so refuse to start instead.
	if c.Engine.BoardSize < minBoardSize || c.Engine.BoardSize > maxBoardSize {
		return fmt.Errorf("board size %d out of range [%d, %d]", c.Engine.BoardSize, minBoardSize, maxBoardSize)
	}
	if c.Engine.MaxGames < 1 {
		c.Engine.MaxGames = 1
	}

	// Validate cache limits
	if c.Cache.Enabled {
		if c.Cache.MaxItems < 1 {
			c.Cache.MaxItems = 1
		}
		if c.Cache.MaxBytes < 1 {
			c.Cache.MaxBytes = 1
		}
	}

	// Validate rate limits
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMin < 1 {
			c.RateLimit.RequestsPerMin = 1
		}
		if c.RateLimit.BurstSize < 1 {
			c.RateLimit.BurstSize = 1
		}
	}

	return nil
}

func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv("ENJOYGO_CONFIG"); path != "" {
		return path
	}

	// Check current directory
	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(home, ".enjoygo", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	return ""
}
