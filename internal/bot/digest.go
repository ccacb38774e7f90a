package bot

import (
	"context"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
	"gitlab.com/yelinaung/expense-tracker/internal/logger"
)

const (
	// DigestCheckInterval is how often the digest loop checks whether to send digests.
	DigestCheckInterval = 30 * time.Minute
	// DigestTimeout is the maximum time a single digest check can take.
	DigestTimeout = 2 * time.Minute
)

// startDailyDigestLoop periodically sends each whitelisted user a summary
// of the current month at the configured hour.
func (b *Bot) startDailyDigestLoop(ctx context.Context) {
	if !b.cfg.DailyDigestEnabled {
		logger.Log.Info().Msg("Daily digest is disabled")
		return
	}

	logger.Log.Info().
		Int("hour", b.cfg.DigestHour).
		Str("timezone", b.loc.String()).
		Msg("Daily digest loop started")

	sent := make(map[int64]string)
	ticker := time.NewTicker(DigestCheckInterval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Daily digest loop stopped")
		return
	default:
	}

	// Check right away so a start during the digest hour still sends one.
	b.checkAndSendDigests(ctx, sent, b.now().In(b.loc))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Daily digest loop stopped")
			return
		case <-ticker.C:
			b.checkAndSendDigests(ctx, sent, b.now().In(b.loc))
		}
	}
}

// checkAndSendDigests sends this month's summary to whitelisted users with
// expenses this month. sent maps a user to the day they last got a digest.
func (b *Bot) checkAndSendDigests(ctx context.Context, sent map[int64]string, now time.Time) {
	if now.Hour() != b.cfg.DigestHour {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, DigestTimeout)
	defer cancel()

	todayStr := now.Format(dateLayout)
	for uid, day := range sent {
		if day != todayStr {
			delete(sent, uid)
		}
	}

	label := ledger.MonthLabel(now, b.loc)

	for _, userID := range b.cfg.WhitelistedUserIDs {
		if sent[userID] == todayStr {
			continue
		}

		records, err := b.expenses.ListByUser(checkCtx, userID)
		if err != nil {
			logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to fetch expenses for digest")
			continue
		}

		var month *ledger.MonthBucket
		buckets := ledger.GroupByMonth(records, b.groupOptions())
		for i := range buckets {
			if buckets[i].Label == label {
				month = &buckets[i]
				break
			}
		}
		if month == nil {
			continue
		}

		summary := ledger.Summarize(month.Expenses, b.cfg.ExtremaMode)
		_, err = b.messageSender.SendMessage(checkCtx, &tgbot.SendMessageParams{
			ChatID:    userID,
			Text:      formatSummary("🗓 <b>"+label+" so far</b>", summary),
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to send daily digest")
			continue
		}

		sent[userID] = todayStr
		logger.Log.Debug().Str("user_hash", logger.HashUserID(userID)).Msg("Sent daily digest")
	}
}
