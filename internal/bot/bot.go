// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expense-tracker/internal/config"
	"gitlab.com/yelinaung/expense-tracker/internal/logger"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
	"gitlab.com/yelinaung/expense-tracker/internal/repository"
	"gitlab.com/yelinaung/expense-tracker/internal/session"
	"gitlab.com/yelinaung/expense-tracker/internal/snapshot"
	"gitlab.com/yelinaung/expense-tracker/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const pollTimeout = time.Minute

// SnapshotSource streams a user's records to a listener.
type SnapshotSource interface {
	Subscribe(ctx context.Context, userID int64, l snapshot.Listener) (*snapshot.Subscription, error)
}

// Deps are the collaborators the bot needs.
type Deps struct {
	Users     repository.UserStore
	Expenses  repository.ExpenseStore
	Snapshots SnapshotSource
	Metrics   *telemetry.Metrics
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot       *bot.Bot
	cfg       *config.Config
	users     repository.UserStore
	expenses  repository.ExpenseStore
	snapshots SnapshotSource
	metrics   *telemetry.Metrics
	sessions  session.Provider
	loc       *time.Location
	now       func() time.Time

	// messageSender sends messages outside of a handler, e.g. digests and
	// live summary edits. It is the Telegram client in production.
	messageSender TelegramAPI

	views *viewStore

	watchesMu sync.Mutex
	watches   map[int64]*watch
}

// New creates a new Bot instance.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := newBot(cfg, deps)

	httpClient := &http.Client{
		Timeout:   pollTimeout + 10*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithHTTPClient(pollTimeout, httpClient),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, deps Deps) *Bot {
	return &Bot{
		cfg:       cfg,
		users:     deps.Users,
		expenses:  deps.Expenses,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		sessions:  session.ContextProvider{},
		loc:       cfg.Location(),
		now:       time.Now,
		views:     newViewStore(),
		watches:   make(map[int64]*watch),
	}
}

// Start begins polling for updates and runs the daily digest loop.
// It blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	go b.startDailyDigestLoop(ctx)

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// Close ends every live summary subscription.
func (b *Bot) Close() {
	b.watchesMu.Lock()
	watches := b.watches
	b.watches = make(map[int64]*watch)
	b.watchesMu.Unlock()

	for _, w := range watches {
		w.sub.Unsubscribe()
	}
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/add", bot.MatchTypePrefix, b.handleAdd)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/list", bot.MatchTypePrefix, b.handleList)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/expense", bot.MatchTypePrefix, b.handleExpense)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/summary", bot.MatchTypePrefix, b.handleSummary)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/watch", bot.MatchTypePrefix, b.handleWatch)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/unwatch", bot.MatchTypePrefix, b.handleUnwatch)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/report", bot.MatchTypePrefix, b.handleReport)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/chart", bot.MatchTypePrefix, b.handleChart)

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, monthCallbackPrefix, bot.MatchTypePrefix, b.handleMonthCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, expenseCallbackPrefix, bot.MatchTypePrefix, b.handleExpenseCallback)
}

// whitelistMiddleware rejects unknown users and attaches the session of
// known ones to the handler context.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		ctx, ok := b.authorize(ctx, tgBot, update)
		if !ok {
			return
		}
		next(ctx, tgBot, update)
	}
}

// authorize is the testable part of whitelistMiddleware.
func (b *Bot) authorize(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) (context.Context, bool) {
	from := extractSender(update)
	if from == nil || from.ID == 0 {
		return ctx, false
	}

	logUserAction(from.ID, update)

	if !b.cfg.IsUserWhitelisted(from.ID, from.Username) {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(from.ID)).
			Msg("Blocked non-whitelisted user")
		if update.Message != nil {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "⛔ Sorry, you are not authorized to use this bot.",
			})
		}
		return ctx, false
	}

	if err := b.ensureUserRegistered(ctx, from); err != nil {
		logger.Log.Error().
			Str("user_hash", logger.HashUserID(from.ID)).
			Err(err).
			Msg("Failed to register user")
	}

	if update.Message != nil {
		if cmd := commandName(update.Message.Text); cmd != "" {
			b.metrics.RecordCommand(ctx, cmd)
		}
	}

	return session.WithSession(ctx, session.Session{
		UserID:    from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
	}), true
}

// logUserAction logs the shape of the user's input without its content.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
			Str("command", commandName(update.Message.Text)).
			Str("text", logger.SanitizeText(update.Message.Text)).
			Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", logger.SanitizeText(update.CallbackQuery.Data)).
			Msg("Callback query")

	case update.EditedMessage != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Edited message")
	}
}

// commandName returns "add" for "/add@mybot 5 Tea", or "" for plain text.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	word, _, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word)
}

// extractSender gets the sending user from the various update types.
func extractSender(update *tgmodels.Update) *tgmodels.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From
	case update.EditedMessage != nil:
		return update.EditedMessage.From
	}
	return nil
}

// ensureUserRegistered creates or updates the user record.
func (b *Bot) ensureUserRegistered(ctx context.Context, from *tgmodels.User) error {
	user := &models.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := b.users.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// currentUser resolves the session for a handler, replying when it is missing.
func (b *Bot) currentUser(ctx context.Context, tg TelegramAPI, chatID int64) (session.Session, bool) {
	sess, err := b.sessions.Current(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Handler called without session")
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Could not identify you. Please send /start.",
		})
		return session.Session{}, false
	}
	return sess, true
}

// defaultHandler handles unrecognized messages.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      "I didn't understand that. Use /help to see available commands, or add an expense with <code>/add 4.50 Coffee @ Cafe</code>",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}
