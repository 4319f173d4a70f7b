package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "tg-token")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg := Load()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "development", cfg.Env)
	require.Equal(t, 8443, cfg.Port)
	require.Equal(t, "https://api.github.com", cfg.GitHubBaseURL)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 5, cfg.RepoLimit)
	require.Empty(t, cfg.GitHubToken)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REPO_LIMIT", "10")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/")

	cfg := Load()
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "gh-token", cfg.GitHubToken)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 10, cfg.RepoLimit)
	// trailing slash is normalized away
	require.Equal(t, "https://bot.example.com", cfg.WebhookBaseURL)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "not-a-number")

	cfg := Load()
	require.Equal(t, 8443, cfg.Port)
}

func TestValidate_MissingMandatory(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("WEBHOOK_URL", "")

	err := Load().Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "TELEGRAM_TOKEN")
	require.Contains(t, err.Error(), "WEBHOOK_URL")
}

func TestValidate_BadPort(t *testing.T) {
	cfg := Config{TelegramToken: "t", WebhookBaseURL: "https://x", Port: 0}
	require.Error(t, cfg.Validate())
}
