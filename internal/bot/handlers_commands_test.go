package bot

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expense-tracker/internal/bot/mocks"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
)

const nilMessageReturnsEarly = "nil message returns early"

func TestHandleStartCore(t *testing.T) {
	env := setupTestBot(t)
	ctx := userCtx(testUserID)

	t.Run(nilMessageReturnsEarly, func(t *testing.T) {
		tg := mocks.NewMockBot()
		env.b.handleStartCore(ctx, tg, &models.Update{})
		require.Equal(t, 0, tg.SentMessageCount())
	})

	t.Run("greets the user by name", func(t *testing.T) {
		tg := mocks.NewMockBot()
		update := mocks.NewUpdateBuilder().
			WithMessage(testChatID, testUserID, "/start").
			WithFrom(testUserID, "ana", "Ana", "").
			Build()
		env.b.handleStartCore(ctx, tg, update)

		msg := tg.LastSentMessage()
		require.NotNil(t, msg)
		require.Contains(t, msg.Text, "Welcome, Ana!")
		require.Equal(t, models.ParseModeHTML, msg.ParseMode)
	})
}

func TestHandleHelpCore(t *testing.T) {
	env := setupTestBot(t)
	tg := mocks.NewMockBot()

	env.b.handleHelpCore(userCtx(testUserID), tg, mocks.CommandUpdate(testChatID, testUserID, "/help"))

	msg := tg.LastSentMessage()
	require.NotNil(t, msg)
	for _, cmd := range []string{"/add", "/list", "/expense", "/summary", "/watch", "/unwatch", "/report", "/chart"} {
		require.Contains(t, msg.Text, cmd)
	}
}

func TestHandleAddCore(t *testing.T) {
	ctx := userCtx(testUserID)

	t.Run(nilMessageReturnsEarly, func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleAddCore(ctx, env.tg, &models.Update{})
		require.Equal(t, 0, env.tg.SentMessageCount())
	})

	t.Run("valid expense is saved for the session user", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleAddCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/add 4.50 Coffee @ Corner Cafe"))

		records, err := env.store.ListByUser(context.Background(), testUserID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "Coffee", records[0].Name)
		require.Equal(t, "Corner Cafe", records[0].Location)
		require.Equal(t, "4.50", records[0].Price.StringFixed(2))
		require.Equal(t, testNow, records[0].Date)
		require.NotEmpty(t, records[0].ID)

		msg := env.tg.LastSentMessage()
		require.Contains(t, msg.Text, "Expense added")
		require.Contains(t, msg.Text, "$4.50")
		require.Contains(t, msg.Text, records[0].ID)
		require.Contains(t, msg.Text, "2024-03-15")
	})

	t.Run("session decides the owner, not the sender", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleAddCore(userCtx(555), env.tg, mocks.CommandUpdate(testChatID, testUserID, "/add 1 Tea @ Home"))

		mine, err := env.store.ListByUser(context.Background(), 555)
		require.NoError(t, err)
		require.Len(t, mine, 1)

		theirs, err := env.store.ListByUser(context.Background(), testUserID)
		require.NoError(t, err)
		require.Empty(t, theirs)
	})

	t.Run("explicit date is stored", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleAddCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/add 12 Lunch @ Deli on 2024-01-31"))

		records, err := env.store.ListByUser(context.Background(), testUserID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), records[0].Date)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleAddCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/add 4.50 Coffee"))

		require.Contains(t, env.tg.LastSentMessage().Text, "Please fill in all fields")
		records, err := env.store.ListByUser(context.Background(), testUserID)
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("invalid price", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleAddCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/add abc Coffee @ Cafe"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Price must be a number")
	})

	t.Run("invalid date", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleAddCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/add 3 Coffee @ Cafe on 2024-13-01"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Date must look like")
	})

	t.Run("store failure", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.expenses = &stubExpenses{err: errStoreDown}
		env.b.handleAddCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/add 3 Coffee @ Cafe"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Failed to save expense")
	})

	t.Run("without session", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleAddCore(context.Background(), env.tg, mocks.CommandUpdate(testChatID, testUserID, "/add 3 Coffee @ Cafe"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Could not identify you")
	})
}

func TestHandleSummaryCore(t *testing.T) {
	ctx := userCtx(testUserID)

	t.Run("no records shows sentinels", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.handleSummaryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/summary"))

		msg := env.tg.LastSentMessage().Text
		require.Contains(t, msg, "Transactions: <b>0</b>")
		require.Contains(t, msg, "Highest: $0.00 (No transactions)")
		require.Contains(t, msg, "Lowest: "+unboundedPrice)
	})

	t.Run("summarises only the session user", func(t *testing.T) {
		env := setupTestBot(t)
		env.addExpense(t, testUserID, "Tea", "2", testNow)
		env.addExpense(t, testUserID, "Dinner", "40", testNow)
		env.addExpense(t, 555, "Car", "9000", testNow)

		env.b.handleSummaryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/summary"))

		msg := env.tg.LastSentMessage().Text
		require.Contains(t, msg, "Transactions: <b>2</b>")
		require.Contains(t, msg, "Total: <b>$42.00</b>")
		require.Contains(t, msg, "Highest: $40.00 (Dinner)")
		require.Contains(t, msg, "Lowest: $2.00 (Tea)")
	})

	t.Run("single zero record keeps highest sentinel in literal mode", func(t *testing.T) {
		env := setupTestBot(t)
		env.addExpense(t, testUserID, "Sample", "0", testNow)

		env.b.handleSummaryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/summary"))

		msg := env.tg.LastSentMessage().Text
		require.Contains(t, msg, "Highest: $0.00 (No transactions)")
		require.Contains(t, msg, "Lowest: $0.00 (Sample)")
	})

	t.Run("strict mode reports the real record", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.cfg.ExtremaMode = ledger.ExtremaStrict
		env.addExpense(t, testUserID, "Sample", "0", testNow)

		env.b.handleSummaryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/summary"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Highest: $0.00 (Sample)")
	})

	t.Run("store failure", func(t *testing.T) {
		env := setupTestBot(t)
		env.b.expenses = &stubExpenses{err: errStoreDown}
		env.b.handleSummaryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, testUserID, "/summary"))
		require.Equal(t, fetchFailedText, env.tg.LastSentMessage().Text)
	})
}
