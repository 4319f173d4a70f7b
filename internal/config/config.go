// Package config reads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	Port           int
	TelegramToken  string
	WebhookBaseURL string
	GitHubToken    string
	GitHubBaseURL  string
	LogLevel       string
	RepoLimit      int
}

// Load reads the configuration. A .env file in the working directory is
// applied first when present; real environment variables win over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:            envStr("APP_ENV", "development"),
		Port:           envInt("PORT", 8443),
		TelegramToken:  envStr("TELEGRAM_TOKEN", ""),
		WebhookBaseURL: strings.TrimRight(envStr("WEBHOOK_URL", ""), "/"),
		GitHubToken:    envStr("GITHUB_TOKEN", ""),
		GitHubBaseURL:  envStr("GITHUB_API_URL", "https://api.github.com"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		RepoLimit:      envInt("REPO_LIMIT", 5),
	}
}

// Validate reports the mandatory settings that are missing. The caller treats
// any error as fatal at startup.
func (c Config) Validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.WebhookBaseURL == "" {
		missing = append(missing, "WEBHOOK_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("config: PORT must be a valid TCP port")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
