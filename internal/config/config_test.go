package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestCheckAPIKey(t *testing.T) {
	deepseek, _ := Lookup("deepseek")
	ollama, _ := Lookup("ollama")
	anthropic, _ := Lookup("anthropic")

	tests := []struct {
		name    string
		variant Variant
		raw     string
		want    string
		wantErr error
	}{
		{"valid", deepseek, "sk-1234567890", "sk-1234567890", nil},
		{"trimmed", deepseek, "  sk-1234567890\n", "sk-1234567890", nil},
		{"missing", deepseek, "", "", ErrMissingKey},
		{"blank", deepseek, "   ", "", ErrMissingKey},
		{"too short", deepseek, "sk-123", "", ErrMalformedKey},
		{"wrong prefix", deepseek, "pk-1234567890", "", ErrMalformedKey},
		{"anthropic prefix", anthropic, "sk-1234567890", "", ErrMalformedKey},
		{"optional missing", ollama, "", "", nil},
		{"optional short", ollama, "abc", "", ErrMalformedKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckAPIKey(tt.variant, tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "sk-ab...", MaskKey("sk-abcdefghijk"))
	assert.Equal(t, "...", MaskKey("sk"))
}

func TestVariants(t *testing.T) {
	names := VariantNames()
	assert.Equal(t, []string{"anthropic", "deepseek", "grok", "huggingface", "ollama", "openai", "openrouter"}, names)

	for _, name := range names {
		v, ok := Lookup(name)
		require.True(t, ok)
		assert.Equal(t, name, v.Name)
		assert.Contains(t, []int{4, 6, 10}, v.HistoryCap, name)
		assert.LessOrEqual(t, v.ContextWindow, v.HistoryCap, name)
		assert.NotEmpty(t, v.Endpoint, name)
		assert.NotEmpty(t, v.KeyEnv, name)
		assert.NotEmpty(t, v.SystemPrompt, name)
		assert.NotEmpty(t, v.Welcome, name)
		assert.NotEmpty(t, v.Apology, name)
		if !v.KeyOptional {
			assert.NotEmpty(t, v.KeyPrefix, name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, envMap(map[string]string{"PORT": "8081"})))
	assert.Equal(t, 8081, cfg.Port)

	cfg = Default()
	require.NoError(t, ApplyEnv(&cfg, envMap(nil)))
	assert.Equal(t, 3000, cfg.Port)

	cfg = Default()
	assert.Error(t, ApplyEnv(&cfg, envMap(map[string]string{"PORT": "http"})))
}

func TestResolveAPIKey(t *testing.T) {
	cfg := Default()
	require.NoError(t, ResolveAPIKey(&cfg, envMap(map[string]string{"DEEPSEEK_API_KEY": " sk-abcdefghijk "})))
	assert.Equal(t, "sk-abcdefghijk", cfg.APIKey)

	cfg = Default()
	assert.ErrorIs(t, ResolveAPIKey(&cfg, envMap(nil)), ErrMissingKey)

	cfg = Default()
	cfg.Variant = "grok"
	err := ResolveAPIKey(&cfg, envMap(map[string]string{"DEEPSEEK_API_KEY": "sk-abcdefghijk", "GROK_API_KEY": "sk-abcdefghijk"}))
	assert.ErrorIs(t, err, ErrMalformedKey)

	cfg = Default()
	cfg.Variant = "nope"
	assert.Error(t, ResolveAPIKey(&cfg, envMap(nil)))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variant: grok
port: 9000
session_ttl: 45m
closing_words: [пока, выход]
store: redis
redis_addr: localhost:6379
`), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, "grok", cfg.Variant)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, []string{"пока", "выход"}, cfg.ClosingWords)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.NoError(t, NewValidator().Validate(&cfg))

	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown variant", func(c *Config) { c.Variant = "gigachat" }, "Variant"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "Port"},
		{"bad store", func(c *Config) { c.Store = "etcd" }, "Store"},
		{"redis without addr", func(c *Config) { c.Store = StoreRedis }, "RedisAddr"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "LogLevel"},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "SessionTTL"},
		{"bad endpoint", func(c *Config) { c.Endpoint = "not a url" }, "Endpoint"},
		{"empty closing word", func(c *Config) { c.ClosingWords = []string{""} }, "ClosingWords[0]"},
		{"telemetry without dir", func(c *Config) { c.Telemetry = true; c.TelemetryDir = "" }, "TelemetryDir"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := v.Validate(&cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpstreamOverrides(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "deepseek-chat", cfg.Upstream().Model)

	cfg.Model = "deepseek-reasoner"
	cfg.Endpoint = "http://127.0.0.1:9999/v1/chat"
	up := cfg.Upstream()
	assert.Equal(t, "deepseek-reasoner", up.Model)
	assert.Equal(t, "http://127.0.0.1:9999/v1/chat", up.Endpoint)
	assert.Equal(t, 10, up.HistoryCap)
}
