package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addRootFlags(cmd)
	addServeFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigFlags(t *testing.T) {
	t.Setenv("PORT", "4000")

	cmd := newFlagCommand(t,
		"--variant", "grok",
		"--session-ttl", "5m",
		"--closing-words", "выход,отбой",
	)
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "grok", cfg.Variant)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"выход", "отбой"}, cfg.ClosingWords)
	assert.Equal(t, 0.7, cfg.Temperature)
}

func TestLoadConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "4000")

	cfg, err := loadConfig(newFlagCommand(t, "--port", "5000"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("PORT", "")

	_, err := loadConfig(newFlagCommand(t, "--variant", "nope"))
	assert.Error(t, err)

	_, err = loadConfig(newFlagCommand(t, "--store", "redis"))
	assert.Error(t, err)
}

func TestVariantsCommand(t *testing.T) {
	var out bytes.Buffer
	variantsCmd.SetOut(&out)
	defer variantsCmd.SetOut(nil)

	require.NoError(t, variantsCmd.RunE(variantsCmd, nil))

	text := out.String()
	assert.Contains(t, text, "NAME")
	assert.Contains(t, text, "deepseek")
	assert.Contains(t, text, "OLLAMA_API_KEY (optional)")
}
