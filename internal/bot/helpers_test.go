package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-tracker/internal/bot/mocks"
	"gitlab.com/yelinaung/expense-tracker/internal/config"
	appmodels "gitlab.com/yelinaung/expense-tracker/internal/models"
	"gitlab.com/yelinaung/expense-tracker/internal/repository"
	"gitlab.com/yelinaung/expense-tracker/internal/session"
	"gitlab.com/yelinaung/expense-tracker/internal/snapshot"
)

const (
	testUserID = int64(123456)
	testChatID = int64(123456)
)

// testNow is the fixed clock of bots built by setupTestBot.
var testNow = time.Date(2024, time.March, 15, 20, 10, 0, 0, time.UTC)

// testEnv bundles a bot backed by the in-memory store with its collaborators.
type testEnv struct {
	b     *Bot
	store *repository.MemoryStore
	hub   *snapshot.Hub
	tg    *mocks.MockBot
}

// setupTestBot creates a Bot backed by an in-memory store whose writes
// drive a snapshot hub.
func setupTestBot(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		TelegramBotToken:   "test-token",
		DataBackend:        config.BackendMemory,
		WhitelistedUserIDs: []int64{testUserID},
		DisplayTimezone:    "UTC",
		DigestHour:         20,
	}

	store := repository.NewMemoryStore(nil)
	hub := snapshot.NewHub(store)
	store.SetNotifier(hub)

	tg := mocks.NewMockBot()
	b := newBot(cfg, Deps{Users: store, Expenses: store, Snapshots: hub})
	b.messageSender = tg
	b.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		b.Close()
		hub.Close()
	})

	return &testEnv{b: b, store: store, hub: hub, tg: tg}
}

// userCtx returns a context carrying the session of userID.
func userCtx(userID int64) context.Context {
	return session.WithSession(context.Background(), session.Session{
		UserID:    userID,
		Username:  "testuser",
		FirstName: "Test",
	})
}

// addExpense stores an expense for userID and returns it with its id.
func (e *testEnv) addExpense(t *testing.T, userID int64, name, price string, date time.Time) appmodels.Expense {
	t.Helper()

	exp := &appmodels.Expense{
		UserID:   userID,
		Name:     name,
		Price:    mustParseDecimal(price),
		Date:     date,
		Location: "Corner Cafe",
	}
	if err := e.store.Create(context.Background(), exp); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}
	return *exp
}

// mustParseDecimal parses a decimal string or panics (for test data).
func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("invalid decimal in test: " + s)
	}
	return d
}

var errStoreDown = errors.New("store unavailable")

// stubExpenses is an ExpenseStore returning fixed results, for records the
// memory store refuses to create and for failure paths.
type stubExpenses struct {
	records []appmodels.Expense
	err     error
}

func (s *stubExpenses) Create(_ context.Context, _ *appmodels.Expense) error {
	return s.err
}

func (s *stubExpenses) GetByID(_ context.Context, userID int64, id string) (*appmodels.Expense, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, e := range s.records {
		if e.ID == id && e.UserID == userID {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubExpenses) ListByUser(_ context.Context, _ int64) ([]appmodels.Expense, error) {
	return s.records, s.err
}
