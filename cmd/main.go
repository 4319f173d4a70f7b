package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github-statbot/handler"
	"github-statbot/internal/config"
	"github-statbot/internal/dispatcher"
	"github-statbot/internal/integrations/github"
	"github-statbot/internal/integrations/telegram"
	"github-statbot/internal/state"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// ---- Clients ----
	ghClient := github.NewClient(cfg.GitHubToken, github.WithBaseURL(cfg.GitHubBaseURL))
	tgClient, err := telegram.NewClient(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram client")
	}

	// ---- Core ----
	states := state.NewStore()
	disp, err := dispatcher.New(ghClient, states, cfg.RepoLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create dispatcher")
	}

	// The webhook path segment is random per boot; the fresh registration
	// below invalidates whatever an earlier process announced.
	secret := uuid.NewString()
	h, err := handler.New(disp, tgClient, secret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create handler")
	}

	if err := registerBot(tgClient, cfg.WebhookBaseURL, secret); err != nil {
		log.Fatal().Err(err).Msg("failed to register bot with telegram")
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("github-statbot listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Let in-flight updates finish their replies before exiting.
	h.Drain()
	log.Info().Msg("shutdown complete")
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// registerBot announces the webhook address and the command menu to the
// Bot API so chat clients can offer command completion.
func registerBot(tg *telegram.Client, baseURL, secret string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := tg.SetWebhook(ctx, baseURL+"/webhook/"+secret); err != nil {
		return err
	}
	return tg.SetMyCommands(ctx, []telegram.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "Show help message"},
		{Command: "repos", Description: "List user repositories"},
		{Command: "quit", Description: "End interaction"},
	})
}
