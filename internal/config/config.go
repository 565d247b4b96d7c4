// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server configuration.
type Config struct {
	// HTTP listen address for the dashboard API.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Prometheus metrics HTTP address.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	// Base URL of the upstream cricket ranking service.
	RankingBaseURL string `env:"RANKING_BASE_URL"`

	// Storage backends. When UseMemory is set the DSNs are ignored.
	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickhouseDSN string `env:"CLICKHOUSE_DSN"`
	UseMemory     bool   `env:"USE_MEMORY" envDefault:"false"`

	// Number of recent matches used for ranking queries.
	MatchWindow int `env:"MATCH_WINDOW" envDefault:"10"`

	// How long a cached ranking snapshot stays fresh.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Upstream client tuning.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"3"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.RankingBaseURL == "" {
		return fmt.Errorf("RANKING_BASE_URL is required")
	}
	if !c.UseMemory && (c.PostgresDSN == "" || c.ClickhouseDSN == "") {
		return fmt.Errorf("POSTGRES_DSN and CLICKHOUSE_DSN are required (set USE_MEMORY=true for in-memory storage)")
	}
	if c.MatchWindow <= 0 {
		return fmt.Errorf("MATCH_WINDOW must be positive")
	}
	return nil
}
