package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
)

// sender is the part of the Bot API used to talk back to users.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram frontend for MovieDeck.
// It implements the core.Frontend interface.
type Bot struct {
	api      *tgbotapi.BotAPI
	out      sender
	catalog  core.Catalog
	sessions *sessionManager
	logger   *slog.Logger
}

// compile-time check.
var _ core.Frontend = (*Bot)(nil)

// New creates a new Telegram Bot.
func New(token string, allowedUserIDs []int64, cat core.Catalog, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := newBot(api, cat, allowedUserIDs, logger)
	b.api = api
	return b, nil
}

func newBot(out sender, cat core.Catalog, allowedUserIDs []int64, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		out:      out,
		catalog:  cat,
		sessions: newSessionManager(cat, allowedUserIDs),
		logger:   logger,
	}
}

// Name returns the frontend name.
func (b *Bot) Name() string { return "telegram" }

// Start starts the long-polling loop. It blocks until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("telegram bot is not connected")
	}
	b.logger.Info("telegram bot started",
		slog.String("username", b.api.Self.UserName),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops the bot (no-op, Start returns when ctx is canceled).
func (b *Bot) Stop(_ context.Context) error {
	return nil
}

// handleUpdate dispatches an incoming Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		ctx = config.ContextWithLogger(ctx, b.logger.With(slog.Int64("user_id", cq.From.ID)))
		b.handleCallback(ctx, cq)
	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		ctx = config.ContextWithLogger(ctx, b.logger.With(slog.Int64("user_id", msg.From.ID)))
		b.handleMessage(ctx, msg)
	}
}
