package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	Variant string `yaml:"variant" validate:"required,variant"`
	Port    int    `yaml:"port" validate:"min=1,max=65535"`

	// Upstream overrides; empty means the variant default
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`

	Temperature     float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens       int           `yaml:"max_tokens" validate:"gt=0"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout" validate:"gt=0"`

	SessionTTL    time.Duration `yaml:"session_ttl" validate:"gt=0"`
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"gt=0"`
	ReplyCacheTTL time.Duration `yaml:"reply_cache_ttl" validate:"gte=0"`
	ClosingWords  []string      `yaml:"closing_words" validate:"dive,required"`

	Store         string `yaml:"store" validate:"oneof=memory redis"`
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=Store redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`

	ArchivePath string `yaml:"archive_path"`

	LogLevel     string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFile      string `yaml:"log_file"`
	Telemetry    bool   `yaml:"telemetry"`
	TelemetryDir string `yaml:"telemetry_dir" validate:"required_if=Telemetry true"`

	// APIKey is resolved from the variant's environment variable, never from files
	APIKey string `yaml:"-"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Variant:         "deepseek",
		Port:            3000,
		Temperature:     0.7,
		MaxTokens:       512,
		UpstreamTimeout: 60 * time.Second,
		SessionTTL:      30 * time.Minute,
		SweepInterval:   10 * time.Minute,
		ClosingWords:    []string{"пока", "хватит", "стоп"},
		Store:           StoreMemory,
		LogLevel:        "info",
		TelemetryDir:    "logs",
	}
}

// LoadFile merges a YAML file into cfg. Keys absent from the file keep their value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv reads PORT from the environment
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}
	return nil
}

// ResolveAPIKey reads and checks the selected variant's API key
func ResolveAPIKey(cfg *Config, getenv func(string) string) error {
	v, ok := Lookup(cfg.Variant)
	if !ok {
		return fmt.Errorf("unknown variant: %s", cfg.Variant)
	}
	key, err := CheckAPIKey(v, getenv(v.KeyEnv))
	if err != nil {
		return err
	}
	cfg.APIKey = key
	return nil
}

// Upstream returns the selected variant with model and endpoint overrides applied
func (c Config) Upstream() Variant {
	v, _ := Lookup(c.Variant)
	if c.Model != "" {
		v.Model = c.Model
	}
	if c.Endpoint != "" {
		v.Endpoint = c.Endpoint
	}
	return v
}
