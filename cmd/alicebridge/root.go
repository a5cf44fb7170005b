package main

import (
	"fmt"
	"os"

	"AliceBridge/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "alicebridge",
	Short:        "Voice skill bridge to hosted LLM APIs",
	Long:         `alicebridge answers Yandex Alice skill webhooks with replies from a chat-completion or text-generation API.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	addRootFlags(rootCmd)
}

func addRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("variant", config.Default().Variant, "Upstream variant, see the variants command")
}

// loadConfig layers defaults, the config file, the environment and explicit flags
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := config.LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := config.ApplyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}

	if err := applyFlags(cmd, &cfg); err != nil {
		return cfg, err
	}

	if err := config.NewValidator().Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}

	set("variant", func() (e error) { cfg.Variant, e = flags.GetString("variant"); return })
	set("port", func() (e error) { cfg.Port, e = flags.GetInt("port"); return })
	set("model", func() (e error) { cfg.Model, e = flags.GetString("model"); return })
	set("endpoint", func() (e error) { cfg.Endpoint, e = flags.GetString("endpoint"); return })
	set("temperature", func() (e error) { cfg.Temperature, e = flags.GetFloat64("temperature"); return })
	set("max-tokens", func() (e error) { cfg.MaxTokens, e = flags.GetInt("max-tokens"); return })
	set("upstream-timeout", func() (e error) { cfg.UpstreamTimeout, e = flags.GetDuration("upstream-timeout"); return })
	set("session-ttl", func() (e error) { cfg.SessionTTL, e = flags.GetDuration("session-ttl"); return })
	set("sweep-interval", func() (e error) { cfg.SweepInterval, e = flags.GetDuration("sweep-interval"); return })
	set("reply-cache-ttl", func() (e error) { cfg.ReplyCacheTTL, e = flags.GetDuration("reply-cache-ttl"); return })
	set("closing-words", func() (e error) { cfg.ClosingWords, e = flags.GetStringSlice("closing-words"); return })
	set("store", func() (e error) { cfg.Store, e = flags.GetString("store"); return })
	set("redis-addr", func() (e error) { cfg.RedisAddr, e = flags.GetString("redis-addr"); return })
	set("redis-password", func() (e error) { cfg.RedisPassword, e = flags.GetString("redis-password"); return })
	set("redis-db", func() (e error) { cfg.RedisDB, e = flags.GetInt("redis-db"); return })
	set("archive", func() (e error) { cfg.ArchivePath, e = flags.GetString("archive"); return })
	set("log-level", func() (e error) { cfg.LogLevel, e = flags.GetString("log-level"); return })
	set("log-file", func() (e error) { cfg.LogFile, e = flags.GetString("log-file"); return })
	set("telemetry", func() (e error) { cfg.Telemetry, e = flags.GetBool("telemetry"); return })
	set("telemetry-dir", func() (e error) { cfg.TelemetryDir, e = flags.GetString("telemetry-dir"); return })

	if err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	return nil
}
