package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the TalentGrid server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Functions FunctionsConfig
	Events    EventsConfig
	Match     MatchConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// FunctionsConfig points at the serverless-functions gateway used for
// side-effecting workflows (notification emails and the like).
type FunctionsConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// EventsConfig configures the AMQP event publisher. Publishing is disabled
// when URL is empty.
type EventsConfig struct {
	URL      string
	Exchange string
}

type MatchConfig struct {
	// WeightsFile optionally overrides the built-in scoring weights
	// with a YAML file. Empty means use defaults.
	WeightsFile string
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("TALENTGRID_PORT", 8080),
			Env:  envString("TALENTGRID_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Functions: FunctionsConfig{
			BaseURL: os.Getenv("FUNCTIONS_BASE_URL"),
			Token:   os.Getenv("FUNCTIONS_TOKEN"),
			Timeout: envDuration("FUNCTIONS_TIMEOUT", 15*time.Second),
		},
		Events: EventsConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: envString("AMQP_EXCHANGE", "talentgrid.events"),
		},
		Match: MatchConfig{
			WeightsFile: os.Getenv("MATCH_WEIGHTS_FILE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Functions.BaseURL == "" {
		return fmt.Errorf("FUNCTIONS_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Functions.BaseURL, "http://") && !strings.HasPrefix(c.Functions.BaseURL, "https://") {
		return fmt.Errorf("FUNCTIONS_BASE_URL must start with http:// or https://, got %q", c.Functions.BaseURL)
	}

	if c.Events.URL != "" && !strings.HasPrefix(c.Events.URL, "amqp://") && !strings.HasPrefix(c.Events.URL, "amqps://") {
		return fmt.Errorf("AMQP_URL must start with amqp:// or amqps://, got %q", c.Events.URL)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
