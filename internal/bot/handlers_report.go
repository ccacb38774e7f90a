package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
	"gitlab.com/yelinaung/expense-tracker/internal/logger"
)

const noExpensesReportText = "📊 No expenses to report yet."

// handleReport handles the /report command.
func (b *Bot) handleReport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleReportCore(ctx, tgBot, update)
}

// handleReportCore is the testable implementation of handleReport.
func (b *Bot) handleReportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
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
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: noExpensesReportText})
		return
	}

	buckets := ledger.GroupByMonth(records, b.groupOptions())
	csvData, err := GenerateExpensesCSV(buckets, b.loc)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate CSV")
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Failed to generate CSV report. Please try again.",
		})
		return
	}

	summary := ledger.Summarize(records, b.cfg.ExtremaMode)
	caption := fmt.Sprintf("📊 <b>All Expenses</b>\n\nTotal: %s\nCount: %d\nMonths: %d",
		formatPrice(summary.Total), summary.Count, len(buckets))

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: generateReportFilename(b.now().In(b.loc)),
			Data:     bytes.NewReader(csvData),
		},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send CSV document")
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Failed to send report. Please try again.",
		})
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(sess.UserID)).
		Int("expense_count", summary.Count).
		Str("total", summary.Total.String()).
		Msg("Report generated successfully")
}

// handleChart handles the /chart command.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
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

	buckets := ledger.GroupByMonth(records, b.groupOptions())
	chartData, err := GenerateMonthlyChart(buckets)
	if err != nil {
		if errors.Is(err, errNothingToChart) {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "📊 No spending to chart yet.",
			})
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Failed to generate chart. Please try again.",
		})
		return
	}

	summary := ledger.Summarize(records, b.cfg.ExtremaMode)
	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: generateChartFilename(b.now().In(b.loc)),
			Data:     bytes.NewReader(chartData),
		},
		Caption:   fmt.Sprintf("📈 <b>Spending by Month</b>\n\nTotal: %s", formatPrice(summary.Total)),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart")
		_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Failed to send chart. Please try again.",
		})
	}
}
