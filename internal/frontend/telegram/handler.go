package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/moviedeck/internal/browse"
	"github.com/vadimtrunov/moviedeck/internal/catalog"
	"github.com/vadimtrunov/moviedeck/internal/config"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	welcomeMsg      = "Welcome to MovieDeck!\n\n" +
		"/popular - browse popular movies\n" +
		"/search <title> - search by title\n" +
		"/reset - start over\n\n" +
		"You can also just send a title."
	resetMsg       = "Session reset. Use /popular or send a title to search."
	searchUsageMsg = "Usage: /search <title>"
	endOfListMsg   = "That's the end of the list."

	// Callback data.
	cbMore        = "more"
	cbPrev        = "prev"
	cbNext        = "next"
	cbRetryFeed   = "retry:feed"
	cbRetrySearch = "retry:search"
	cbMoviePrefix = "movie:"

	maxButtonLabel = 30 // max characters in inline keyboard button label
)

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	logger := config.LoggerFromContext(ctx)

	logger.Debug("received message")

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	cmd, args := parseCommand(text)
	switch cmd {
	case "start", "help":
		b.sendText(chatID, welcomeMsg)
	case "reset":
		b.sessions.reset(userID)
		b.sendText(chatID, resetMsg)
	case "popular":
		s := b.sessions.getOrCreate(userID).feed
		if req, ok := s.Refresh(); ok {
			b.loadFeed(ctx, chatID, s, req)
		}
	case "search":
		b.startSearch(ctx, chatID, b.sessions.getOrCreate(userID).search, args)
	case "":
		b.startSearch(ctx, chatID, b.sessions.getOrCreate(userID).search, text)
	default:
		b.sendText(chatID, welcomeMsg)
	}
}

// parseCommand splits "/search@bot dune" into ("search", "dune").
// Text that is not a command yields an empty command.
func parseCommand(text string) (cmd, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	logger := config.LoggerFromContext(ctx)
	logger.Debug("received callback", slog.String("data", cq.Data))

	// Acknowledge the callback immediately.
	if _, err := b.out.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		logger.Debug("failed to ack callback", slog.String("error", err.Error()))
	}

	if cq.Message == nil || !b.sessions.isAllowed(cq.From.ID) {
		return
	}
	chatID := cq.Message.Chat.ID
	sess := b.sessions.getOrCreate(cq.From.ID)

	switch data := cq.Data; {
	case data == cbMore:
		req, ok := sess.feed.RequestNextPage()
		if !ok {
			if sess.feed.Snapshot().Exhausted() {
				b.sendText(chatID, endOfListMsg)
			}
			return
		}
		b.loadFeed(ctx, chatID, sess.feed, req)

	case data == cbRetryFeed:
		if req, ok := sess.feed.Retry(); ok {
			b.loadFeed(ctx, chatID, sess.feed, req)
		}

	case data == cbPrev || data == cbNext:
		snap := sess.search.Snapshot()
		target := snap.LoadedPage + 1
		if data == cbPrev {
			target = snap.LoadedPage - 1
		}
		if req, ok := sess.search.GoToPage(target); ok {
			b.loadSearch(ctx, chatID, sess.search, req)
		}

	case data == cbRetrySearch:
		if req, ok := sess.search.Retry(); ok {
			b.loadSearch(ctx, chatID, sess.search, req)
		}

	case strings.HasPrefix(data, cbMoviePrefix):
		id, err := strconv.Atoi(strings.TrimPrefix(data, cbMoviePrefix))
		if err != nil || id <= 0 {
			logger.Warn("bad movie callback", slog.String("data", data))
			return
		}
		b.sendDetail(ctx, chatID, id)
	}
}

// startSearch resets the search session for query and loads its first page.
func (b *Bot) startSearch(ctx context.Context, chatID int64, s *browse.Session, query string) {
	req, ok := s.ResetForNewQuery(query)
	if !ok {
		b.sendText(chatID, searchUsageMsg)
		return
	}
	b.loadSearch(ctx, chatID, s, req)
}

// loadFeed runs one feed request and sends the newly loaded page.
func (b *Bot) loadFeed(ctx context.Context, chatID int64, s *browse.Session, req browse.Request) {
	b.sendTyping(chatID)
	page, err := s.Fetch(ctx, req)
	if !s.Complete(req, page, err) {
		return
	}
	if err != nil {
		b.sendError(ctx, chatID, err, cbRetryFeed)
		return
	}

	snap := s.Snapshot()
	var results []catalog.Movie
	if page != nil {
		results = page.Results
	}
	cards := catalog.ShapeCards(results)
	start := len(snap.Items) - len(cards) + 1
	header := fmt.Sprintf("Popular movies (page %d of %d)", req.Page, snap.TotalPages)

	var nav []tgbotapi.InlineKeyboardButton
	if !snap.Exhausted() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("More ▾", cbMore))
	}
	b.sendMarkdown(chatID,
		FormatList(header, cards, start, true),
		FormatList(header, cards, start, false),
		listKeyboard(cards, nav),
	)
}

// loadSearch runs one search request and sends the resulting page.
func (b *Bot) loadSearch(ctx context.Context, chatID int64, s *browse.Session, req browse.Request) {
	b.sendTyping(chatID)
	page, err := s.Fetch(ctx, req)
	if !s.Complete(req, page, err) {
		return
	}
	if err != nil {
		b.sendError(ctx, chatID, err, cbRetrySearch)
		return
	}

	snap := s.Snapshot()
	if snap.NoResults() {
		b.sendText(chatID, catalog.NoResults(snap.Query))
		return
	}

	cards := catalog.ShapeCards(snap.Items)
	header := fmt.Sprintf("Results for %q (page %d of %d)", snap.Query, snap.LoadedPage, snap.TotalPages)

	var nav []tgbotapi.InlineKeyboardButton
	if snap.HasPrev() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◂ Prev", cbPrev))
	}
	if snap.HasNext() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▸", cbNext))
	}
	b.sendMarkdown(chatID,
		FormatList(header, cards, 1, true),
		FormatList(header, cards, 1, false),
		listKeyboard(cards, nav),
	)
}

// sendDetail fetches and sends a detail card: poster, text, trailer buttons.
func (b *Bot) sendDetail(ctx context.Context, chatID int64, id int) {
	b.sendTyping(chatID)
	detail, err := b.catalog.GetDetail(ctx, id)
	if err != nil {
		b.sendError(ctx, chatID, err, "")
		return
	}
	view := catalog.ShapeDetail(detail)

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(view.PosterURL))
	photo.Caption = view.Title
	if _, err := b.out.Send(photo); err != nil {
		config.LoggerFromContext(ctx).Debug("failed to send poster",
			slog.String("url", view.PosterURL),
			slog.String("error", err.Error()),
		)
	}

	b.sendMarkdown(chatID, FormatDetail(view, true), FormatDetail(view, false), trailerKeyboard(view.Trailers))
}

// listKeyboard builds one button per title plus an optional navigation row.
func listKeyboard(cards []catalog.CardView, nav []tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range cards {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonLabel(c.Title), cbMoviePrefix+strconv.Itoa(c.ID)),
		))
	}
	if len(nav) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(nav...))
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// trailerKeyboard builds one URL button per selected trailer.
func trailerKeyboard(trailers []catalog.TrailerView) *tgbotapi.InlineKeyboardMarkup {
	if len(trailers) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range trailers {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("▶ "+buttonLabel(t.Name), t.WatchURL),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// sendError reports a failed request. retryData adds a retry button when set.
func (b *Bot) sendError(ctx context.Context, chatID int64, err error, retryData string) {
	config.LoggerFromContext(ctx).Warn("catalog request failed", slog.String("error", catalog.Cause(err)))

	msg := tgbotapi.NewMessage(chatID, "⚠ "+catalog.Message(err))
	if retryData != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Retry", retryData),
		))
	}
	b.send(msg)
}

// sendMarkdown sends MarkdownV2 text, falling back to plain text if Telegram rejects it.
func (b *Bot) sendMarkdown(chatID int64, md, plain string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, md)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Warn("failed to send markdown, retrying plain",
			slog.String("error", err.Error()),
		)
		msg.Text = plain
		msg.ParseMode = ""
		b.send(msg)
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", msg.ChatID),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) sendTyping(chatID int64) {
	b.out.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator
}
