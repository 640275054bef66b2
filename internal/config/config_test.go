package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MARKETPULSE_TELEGRAM_TOKEN", "123:token")
	t.Setenv("MARKETPULSE_TELEGRAM_CHAT_ID", "987654")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, cfg.Symbols)
	require.Equal(t, 5*time.Minute, cfg.Interval)
	require.Equal(t, 10*time.Second, cfg.SourceTimeout)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	require.Equal(t, 3, cfg.Telegram.MaxAttempts)
	require.Equal(t, 50, cfg.Candles.Limit)
	require.True(t, cfg.OpenInterest.Enabled)
	require.False(t, cfg.BiasEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MARKETPULSE_SYMBOLS", "btcusdt, ethusdt")
	t.Setenv("MARKETPULSE_INTERVAL", "1m")
	t.Setenv("MARKETPULSE_OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	require.Equal(t, time.Minute, cfg.Interval)
	require.True(t, cfg.BiasEnabled())
	require.EqualValues(t, 987654, cfg.Telegram.ChatID)
}

func TestLoad_MissingTelegramTokenFails(t *testing.T) {
	t.Setenv("MARKETPULSE_TELEGRAM_CHAT_ID", "987654")

	_, err := Load("")
	require.ErrorContains(t, err, "telegram.token is required")
}

func TestLoad_MissingChatIDFails(t *testing.T) {
	t.Setenv("MARKETPULSE_TELEGRAM_TOKEN", "123:token")

	_, err := Load("")
	require.ErrorContains(t, err, "telegram.chat_id is required")
}

func TestLoad_TimeoutMustBeShorterThanInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MARKETPULSE_INTERVAL", "5s")
	t.Setenv("MARKETPULSE_SOURCE_TIMEOUT", "10s")

	_, err := Load("")
	require.ErrorContains(t, err, "source_timeout must be shorter")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketpulse.yaml")
	content := []byte(`
symbols: SOLUSDT
interval: 2m
telegram:
  token: "123:token"
  chat_id: 42
openai:
  api_key: sk-file
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{"SOLUSDT"}, cfg.Symbols)
	require.Equal(t, 2*time.Minute, cfg.Interval)
	require.EqualValues(t, 42, cfg.Telegram.ChatID)
	require.True(t, cfg.BiasEnabled())
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
