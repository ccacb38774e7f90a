package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
	"gitlab.com/yelinaung/expense-tracker/internal/logger"
	appmodels "gitlab.com/yelinaung/expense-tracker/internal/models"
	"gitlab.com/yelinaung/expense-tracker/internal/repository"
)

const (
	monthCallbackPrefix   = "month:"
	expenseCallbackPrefix = "expense:"

	// maxRowsPerMonth caps the records listed under one expanded month.
	maxRowsPerMonth = 15
	// maxListTextLen keeps the rendered list under Telegram's 4096 character
	// limit. Record rows stop earlier so later month headers still fit.
	maxListTextLen = 3800
	maxRowTextLen  = 3300
	// maxListButtons keeps the keyboard under Telegram's 100 button limit.
	maxListButtons     = 95
	maxRowButtons      = 70
	maxButtonNameRunes = 32

	expandedMarker  = "▲"
	collapsedMarker = "▼"

	listTitle             = "📒 <b>Expenses by month</b>"
	emptyListText         = "📭 No expenses yet. Add one with <code>/add 4.50 Coffee @ Cafe</code>"
	fetchFailedText       = "❌ Failed to fetch expenses. Please try again."
	expenseDetailErrorMsg = "Error loading expense details."
)

func (b *Bot) groupOptions() ledger.GroupOptions {
	return ledger.GroupOptions{Location: b.loc, Undated: b.cfg.UndatedPolicy}
}

// renderMonthList renders grouped buckets as text plus a keyboard with one
// toggle per month and one detail button per visible expense. Expanded
// months list at most maxRowsPerMonth records and headers always count and
// total the full month. Whatever does not fit Telegram's limits is
// summarised as "…and N more".
func renderMonthList(buckets []ledger.MonthBucket, exp *ledger.Expansion) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(listTitle)
	sb.WriteString("\n")

	var rows [][]models.InlineKeyboardButton
	hiddenMonths := 0
	for _, bucket := range buckets {
		expanded := exp.IsExpanded(bucket.Label)
		marker := collapsedMarker
		if expanded {
			marker = expandedMarker
		}
		title := bucketTitle(bucket.Label)

		header := fmt.Sprintf("\n%s <b>%s</b> · %d · %s", marker, escapeHTML(title), len(bucket.Expenses), formatPrice(bucket.Total()))
		if sb.Len()+len(header) > maxListTextLen || len(rows) >= maxListButtons {
			hiddenMonths++
			continue
		}
		sb.WriteString(header)
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: marker + " " + title, CallbackData: monthCallbackPrefix + bucket.Label},
		})

		if !expanded {
			continue
		}

		shown := 0
		for _, e := range bucket.Expenses {
			name := displayName(e.Name)
			line := fmt.Sprintf("\n    • %s  %s", escapeHTML(name), formatPrice(e.Price))
			if shown == maxRowsPerMonth || sb.Len()+len(line) > maxRowTextLen || len(rows) >= maxRowButtons {
				break
			}
			sb.WriteString(line)
			rows = append(rows, []models.InlineKeyboardButton{
				{Text: "🔎 " + truncateRunes(name, maxButtonNameRunes) + " " + formatPrice(e.Price), CallbackData: expenseCallbackPrefix + e.ID},
			})
			shown++
		}
		if hidden := len(bucket.Expenses) - shown; hidden > 0 {
			fmt.Fprintf(&sb, "\n    …and %d more", hidden)
		}
	}

	if hiddenMonths > 0 {
		fmt.Fprintf(&sb, "\n\n…and %d more months", hiddenMonths)
	}

	return sb.String(), &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// handleList handles the /list command.
func (b *Bot) handleList(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListCore(ctx, tgBot, update)
}

// handleListCore is the testable implementation of handleList.
func (b *Bot) handleListCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
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

	if len(records) == 0 {
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      emptyListText,
			ParseMode: models.ParseModeHTML,
		})
		return
	}

	text, keyboard := renderMonthList(ledger.GroupByMonth(records, b.groupOptions()), b.views.forChat(chatID))

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send expense list")
	}
}

// handleMonthCallback toggles a month bucket of a /list message.
func (b *Bot) handleMonthCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleMonthCallbackCore(ctx, tgBot, update)
}

// handleMonthCallbackCore is the testable implementation of handleMonthCallback.
func (b *Bot) handleMonthCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	})

	chatID := cq.Message.Message.Chat.ID
	messageID := cq.Message.Message.ID
	label := strings.TrimPrefix(cq.Data, monthCallbackPrefix)

	sess, ok := b.currentUser(ctx, tg, chatID)
	if !ok {
		return
	}

	exp := b.views.forChat(chatID)
	exp.Toggle(label)

	records, ok := b.expenseListFor(ctx, tg, chatID, sess.UserID)
	if !ok {
		return
	}

	text, keyboard := renderMonthList(ledger.GroupByMonth(records, b.groupOptions()), exp)
	if len(records) == 0 {
		text, keyboard = emptyListText, nil
	}

	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	if _, err := tg.EditMessageText(ctx, params); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to update expense list")
	}
}

// handleExpense handles the /expense <id> command.
func (b *Bot) handleExpense(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExpenseCore(ctx, tgBot, update)
}

// handleExpenseCore is the testable implementation of handleExpense.
func (b *Bot) handleExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	id := extractCommandArgs(update.Message.Text, "/expense")
	if id == "" {
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      "❌ Please specify an expense.\n\nUsage: <code>/expense &lt;id&gt;</code>",
			ParseMode: models.ParseModeHTML,
		})
		return
	}

	b.sendExpenseDetail(ctx, tg, chatID, id)
}

// handleExpenseCallback opens an expense from a /list button.
func (b *Bot) handleExpenseCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExpenseCallbackCore(ctx, tgBot, update)
}

// handleExpenseCallbackCore is the testable implementation of handleExpenseCallback.
func (b *Bot) handleExpenseCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	})

	id := strings.TrimPrefix(cq.Data, expenseCallbackPrefix)
	b.sendExpenseDetail(ctx, tg, cq.Message.Message.Chat.ID, id)
}

func (b *Bot) sendExpenseDetail(ctx context.Context, tg TelegramAPI, chatID int64, id string) {
	sess, ok := b.currentUser(ctx, tg, chatID)
	if !ok {
		return
	}

	expense, err := b.expenses.GetByID(ctx, sess.UserID, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(sess.UserID)).Msg("Failed to load expense")
		}
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ " + expenseDetailErrorMsg,
		})
		return
	}

	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      formatExpenseDetail(expense, b.loc),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send expense detail")
	}
}

// expenseListFor fetches the user's records, replying on failure.
func (b *Bot) expenseListFor(ctx context.Context, tg TelegramAPI, chatID, userID int64) ([]appmodels.Expense, bool) {
	records, err := b.expenses.ListByUser(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to fetch expenses")
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: fetchFailedText})
		return nil, false
	}
	return records, true
}
