package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/yt-showcase/internal/api"
	"github.com/yt-showcase/internal/config"
	"github.com/yt-showcase/internal/credentials"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Read the OAuth client; a missing secret file is fatal
	oauthCfg, err := credentials.LoadClientConfig(cfg.ClientSecretFile, cfg.Scopes)
	if err != nil {
		logger.Error("failed to load client secret", slog.Any("error", err))
		os.Exit(1)
	}

	store := credentials.NewFileStore(cfg.TokenFile, cfg.TokenPassphrase)
	if !cfg.Sealed() {
		logger.Warn("credential cache is stored unencrypted; set SHOWCASE_TOKEN_PASSPHRASE to seal it",
			slog.String("path", store.Path()))
	}
	provider := credentials.NewProvider(oauthCfg, store, logger)

	if _, err := provider.Credential(context.Background()); err != nil {
		logger.Warn("no usable credential yet; requests will fail until the authorize command is run",
			slog.Any("error", err))
	}

	showcase := api.NewShowcase(cfg.ChannelID, provider, logger)
	server := api.NewServer(showcase, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving channel showcase",
		slog.String("channel", cfg.ChannelID),
		slog.String("port", cfg.Port))
	if err := server.Run(ctx, ":"+cfg.Port); err != nil {
		logger.Error("failed to start server", slog.Any("error", err))
		os.Exit(1)
	}
}
