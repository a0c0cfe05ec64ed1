// Package config loads the immutable application configuration. Values come
// from an optional YAML file overridden by environment variables; the loaded
// Config is passed explicitly to the components that need it and is never read
// from ambient process state inside business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Media    MediaConfig    `yaml:"media"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	SecureCookies  bool          `yaml:"secure_cookies"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitRPS   int           `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
}

// DatabaseConfig selects the persistence backend. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig holds token secrets and lifetimes.
type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
}

// MediaConfig configures the blob storage backend. An empty bucket selects the
// in-memory store.
type MediaConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

// Default returns the baseline configuration before file and env overrides.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8000,
			CORSOrigins:    []string{"*"},
			SecureCookies:  false,
			RequestTimeout: 15 * time.Second,
			RateLimitRPS:   50,
			RateLimitBurst: 100,
		},
		Auth: AuthConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 10 * 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CLIPSTREAM_CONFIG, and environment variables, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CLIPSTREAM_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := envInt("PORT"); v > 0 {
		cfg.Server.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGIN")); v != "" {
		cfg.Server.CORSOrigins = splitCSV(v)
	}
	if v := strings.TrimSpace(os.Getenv("SECURE_COOKIES")); v != "" {
		cfg.Server.SecureCookies = v == "true" || v == "1"
	}
	if v := envDuration("REQUEST_TIMEOUT"); v > 0 {
		cfg.Server.RequestTimeout = v
	}
	if v := envInt("RATE_LIMIT_RPS"); v > 0 {
		cfg.Server.RateLimitRPS = v
	}
	if v := envInt("RATE_LIMIT_BURST"); v > 0 {
		cfg.Server.RateLimitBurst = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.Database.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("ACCESS_TOKEN_SECRET")); v != "" {
		cfg.Auth.AccessSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("REFRESH_TOKEN_SECRET")); v != "" {
		cfg.Auth.RefreshSecret = v
	}
	if v := envDuration("ACCESS_TOKEN_EXPIRY"); v > 0 {
		cfg.Auth.AccessTTL = v
	}
	if v := envDuration("REFRESH_TOKEN_EXPIRY"); v > 0 {
		cfg.Auth.RefreshTTL = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDIA_BUCKET")); v != "" {
		cfg.Media.Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDIA_REGION")); v != "" {
		cfg.Media.Region = v
	}
}

// Validate checks the fields the server cannot run without.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if c.Auth.RefreshSecret == "" {
		return fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return fmt.Errorf("access and refresh secrets must differ")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Media.Bucket != "" && c.Media.Region == "" {
		return fmt.Errorf("MEDIA_REGION is required when MEDIA_BUCKET is set")
	}
	return nil
}

func envInt(name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return 0
	}
	return v
}

func envDuration(name string) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return 0
	}
	return v
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
