package bot

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
	"gitlab.com/yelinaung/expense-tracker/internal/logger"
	appmodels "gitlab.com/yelinaung/expense-tracker/internal/models"
	"gitlab.com/yelinaung/expense-tracker/internal/snapshot"
)

const (
	liveSummaryTitle = "📡 <b>Live summary</b>"
	editTimeout      = 10 * time.Second
)

// watch is a live summary message kept in sync with a subscription.
type watch struct {
	sub       *snapshot.Subscription
	messageID int
}

// summaryListener edits one message with the summary of every snapshot.
type summaryListener struct {
	b         *Bot
	chatID    int64
	messageID int
}

func (l *summaryListener) OnSnapshot(records []appmodels.Expense) {
	summary := ledger.Summarize(records, l.b.cfg.ExtremaMode)
	text := formatSummary(liveSummaryTitle, summary) +
		"\n\n<i>Updated " + l.b.now().In(l.b.loc).Format("15:04:05") + "</i>"
	l.edit(text)
}

func (l *summaryListener) OnError(msg string) {
	l.edit(liveSummaryTitle + "\n\n❌ " + escapeHTML(msg))
}

func (l *summaryListener) edit(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
	defer cancel()

	_, err := l.b.messageSender.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    l.chatID,
		MessageID: l.messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil && !strings.Contains(err.Error(), "message is not modified") {
		logger.Log.Error().Err(err).
			Str("chat_hash", logger.HashChatID(l.chatID)).
			Msg("Failed to update live summary")
	}
}

// handleWatch handles the /watch command.
func (b *Bot) handleWatch(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleWatchCore(ctx, tgBot, update)
}

// handleWatchCore is the testable implementation of handleWatch.
func (b *Bot) handleWatchCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess, ok := b.currentUser(ctx, tg, chatID)
	if !ok {
		return
	}

	// Held until the watch is stored so concurrent /watch commands in one
	// chat cannot both subscribe.
	b.watchesMu.Lock()
	defer b.watchesMu.Unlock()

	if b.activeWatchLocked(chatID) != nil {
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "👀 Already watching. Use /unwatch to stop.",
		})
		return
	}

	msg, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      liveSummaryTitle + "\n\n⏳ Loading...",
		ParseMode: models.ParseModeHTML,
	})
	if err != nil || msg == nil {
		logger.Log.Error().Err(err).Msg("Failed to send live summary message")
		return
	}

	listener := &summaryListener{b: b, chatID: chatID, messageID: msg.ID}

	// The subscription outlives this update, so it must not inherit the
	// handler's cancellation.
	sub, err := b.snapshots.Subscribe(context.WithoutCancel(ctx), sess.UserID, listener)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(sess.UserID)).
			Msg("Failed to subscribe to snapshots")
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Live summary is unavailable right now.",
		})
		return
	}

	b.watches[chatID] = &watch{sub: sub, messageID: msg.ID}

	logger.Log.Info().Str("user_hash", logger.HashUserID(sess.UserID)).Msg("Live summary started")
}

// handleUnwatch handles the /unwatch command.
func (b *Bot) handleUnwatch(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleUnwatchCore(ctx, tgBot, update)
}

// handleUnwatchCore is the testable implementation of handleUnwatch.
func (b *Bot) handleUnwatchCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	b.watchesMu.Lock()
	w := b.watches[chatID]
	delete(b.watches, chatID)
	b.watchesMu.Unlock()

	if w == nil {
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Nothing to stop. Use /watch to start a live summary.",
		})
		return
	}

	w.sub.Unsubscribe()

	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🛑 Live summary stopped.",
	})
}

// activeWatch returns the chat's watch, dropping it if its subscription
// has already ended.
func (b *Bot) activeWatch(chatID int64) *watch {
	b.watchesMu.Lock()
	defer b.watchesMu.Unlock()
	return b.activeWatchLocked(chatID)
}

// activeWatchLocked is activeWatch for callers holding watchesMu.
func (b *Bot) activeWatchLocked(chatID int64) *watch {
	w := b.watches[chatID]
	if w == nil {
		return nil
	}
	select {
	case <-w.sub.Done():
		delete(b.watches, chatID)
		return nil
	default:
		return w
	}
}
