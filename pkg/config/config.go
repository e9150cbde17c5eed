package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Engine struct {
		MinObservations      int     `yaml:"min_observations"`
		DefaultSlices        int     `yaml:"default_slices"`
		PenaltyMultiplier    float64 `yaml:"penalty_multiplier"`
		Reads                int     `yaml:"reads"`
		Sweeps               int     `yaml:"sweeps"`
		InitialTemp          float64 `yaml:"initial_temp"`
		FinalTemp            float64 `yaml:"final_temp"`
		Parallelism          int     `yaml:"parallelism"`
		AnnualizationPeriods int     `yaml:"annualization_periods"`
	} `yaml:"engine"`
	MarketData struct {
		YahooBaseURL   string        `yaml:"yahoo_base_url"`
		BinanceBaseURL string        `yaml:"binance_base_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		DefaultPeriod  string        `yaml:"default_period"`
		CacheTTL       time.Duration `yaml:"cache_ttl"`
	} `yaml:"market_data"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	History struct {
		Enabled    bool `yaml:"enabled"`
		ClickHouse struct {
			Host        string        `yaml:"host"`
			Port        int           `yaml:"port"`
			Database    string        `yaml:"database"`
			User        string        `yaml:"user"`
			Password    string        `yaml:"password"`
			UseHTTP     bool          `yaml:"use_http"`
			DialTimeout time.Duration `yaml:"dial_timeout"`
			ReadTimeout time.Duration `yaml:"read_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"history"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.History.ClickHouse.Host = v
		c.History.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.History.ClickHouse.Password = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Engine.PenaltyMultiplier < 0 {
		return fmt.Errorf("engine.penalty_multiplier must not be negative")
	}
	if c.Engine.Reads < 0 || c.Engine.Sweeps < 0 {
		return fmt.Errorf("engine.reads and engine.sweeps must not be negative")
	}
	if c.Engine.DefaultSlices < 0 {
		return fmt.Errorf("engine.default_slices must not be negative")
	}
	if p := c.MarketData.DefaultPeriod; p != "" && !validPeriod(p) {
		return fmt.Errorf("market_data.default_period %q is not supported", p)
	}
	if c.History.Enabled && c.History.ClickHouse.Host == "" {
		return fmt.Errorf("history.clickhouse.host is required when history is enabled")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	return nil
}

func validPeriod(p string) bool {
	switch p {
	case "1mo", "3mo", "6mo", "1y", "2y", "5y":
		return true
	}
	return false
}
