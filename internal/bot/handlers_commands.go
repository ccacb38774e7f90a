package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
	"gitlab.com/yelinaung/expense-tracker/internal/logger"
	appmodels "gitlab.com/yelinaung/expense-tracker/internal/models"
)

const (
	addUsage         = "Usage: <code>/add &lt;price&gt; &lt;name&gt; @ &lt;location&gt; [on YYYY-MM-DD]</code>"
	missingFieldsMsg = "❌ Please fill in all fields\n\n" + addUsage
)

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I keep track of your expenses and group them by month.

<b>Quick Start:</b>
• Add an expense: <code>/add 4.50 Coffee @ Corner Cafe</code>
• Backdate it: <code>/add 12 Lunch @ Deli on 2024-03-05</code>
• See them by month with /list

Use /help to see all available commands.`,
		formatGreeting(firstName))

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /start response")
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /start response")
	}
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Expense Tracking:</b>
• <code>/add &lt;price&gt; &lt;name&gt; @ &lt;location&gt;</code> - Add an expense dated today
• <code>/add ... on YYYY-MM-DD</code> - Add an expense for another day

<b>Viewing Expenses:</b>
• <code>/list</code> - Expenses grouped by month, tap a month to expand it
• <code>/expense &lt;id&gt;</code> - Show one expense
• <code>/summary</code> - Count, total, highest and lowest expense

<b>Live Summary:</b>
• <code>/watch</code> - Keep a summary message updated as expenses change
• <code>/unwatch</code> - Stop updating it

<b>Reports:</b>
• <code>/report</code> - Download all expenses as CSV
• <code>/chart</code> - Monthly totals as a pie chart`

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /help response")
	}
}

// handleAdd handles the /add command.
func (b *Bot) handleAdd(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAddCore(ctx, tgBot, update)
}

// handleAddCore is the testable implementation of handleAdd.
func (b *Bot) handleAddCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess, ok := b.currentUser(ctx, tg, chatID)
	if !ok {
		return
	}

	parsed, err := ParseAddCommand(extractCommandArgs(update.Message.Text, "/add"), b.now().In(b.loc))
	if err != nil {
		b.replyParseError(ctx, tg, chatID, err)
		return
	}

	expense := &appmodels.Expense{
		UserID:   sess.UserID,
		Name:     parsed.Name,
		Price:    parsed.Price,
		Date:     parsed.Date,
		Location: parsed.Location,
	}

	if err := b.expenses.Create(ctx, expense); err != nil {
		if isValidationError(err) {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "❌ " + err.Error(),
			})
			return
		}
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(sess.UserID)).
			Msg("Failed to create expense")
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Failed to save expense. Please try again.",
		})
		return
	}

	b.metrics.RecordExpenseCreated(ctx)
	logger.Log.Info().
		Str("user_hash", logger.HashUserID(sess.UserID)).
		Str("expense_id", expense.ID).
		Str("name", logger.SanitizeDescription(expense.Name)).
		Msg("Expense added")

	text := fmt.Sprintf(`✅ <b>Expense added</b>

%s · %s
📅 %s · 📍 %s

<code>%s</code>`,
		escapeHTML(expense.Name),
		formatPrice(expense.Price),
		formatDate(expense.Date, b.loc),
		escapeHTML(expense.Location),
		expense.ID,
	)

	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /add response")
	}
}

func (b *Bot) replyParseError(ctx context.Context, tg TelegramAPI, chatID int64, err error) {
	text := missingFieldsMsg
	switch {
	case errors.Is(err, ErrInvalidPrice):
		text = "❌ Price must be a number like <code>4.50</code>\n\n" + addUsage
	case errors.Is(err, ErrInvalidDate):
		text = "❌ Date must look like <code>2024-03-05</code>\n\n" + addUsage
	}

	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		appmodels.ErrEmptyName,
		appmodels.ErrEmptyLocation,
		appmodels.ErrMissingDate,
		appmodels.ErrNegativePrice,
		appmodels.ErrNameTooLong,
		appmodels.ErrLocationTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleSummary handles the /summary command.
func (b *Bot) handleSummary(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSummaryCore(ctx, tgBot, update)
}

// handleSummaryCore is the testable implementation of handleSummary.
func (b *Bot) handleSummaryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess, ok := b.currentUser(ctx, tg, chatID)
	if !ok {
		return
	}

	records, ok := b.expenseListFor(ctx, tg, chatID, sess.UserID)
	if !ok {
		return
	}

	summary := ledger.Summarize(records, b.cfg.ExtremaMode)
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      formatSummary("📊 <b>Summary</b>", summary),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /summary response")
	}
}
