package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/frontend/telegram"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Start the MovieDeck Telegram bot: popular movies, search and movie cards in chat.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot()
		},
	}
}

// runBot initializes the catalog and runs the Telegram bot until interrupted.
func runBot() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Telegram == nil {
		return errors.New(
			"telegram configuration is required: set telegram.bot_token in config or " +
				config.EnvTelegramToken + " env var",
		)
	}

	logger := config.SetupLogger(cfg.App, os.Stdout)
	cat, err := initCatalog(cfg, logger)
	if err != nil {
		return err
	}

	bot, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.AllowedUserIDs, cat, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer func() { _ = bot.Stop(context.Background()) }()

	logger.Info("telegram bot starting")
	return bot.Start(ctx)
}
