package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
)

type recordingNotifier struct {
	mu    sync.Mutex
	users []int64
}

func (n *recordingNotifier) Notify(userID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
}

func TestMemoryStore_Expenses(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	store := NewMemoryStore(notifier)
	date := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

	t.Run("create assigns id and notifies owner", func(t *testing.T) {
		expense := newExpense(1, "Bread", "2.00", date)
		require.NoError(t, store.Create(ctx, expense))
		require.NotEmpty(t, expense.ID)
		require.False(t, expense.CreatedAt.IsZero())
		require.Equal(t, []int64{1}, notifier.users)
	})

	t.Run("invalid expense is not stored or announced", func(t *testing.T) {
		err := store.Create(ctx, newExpense(1, "Milk", "-1", date))
		require.ErrorIs(t, err, models.ErrNegativePrice)
		require.Len(t, notifier.users, 1)
	})

	t.Run("list is scoped and ordered", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newExpense(2, "Other", "1", date)))
		require.NoError(t, store.Create(ctx, newExpense(1, "Jam", "3", date)))

		expenses, err := store.ListByUser(ctx, 1)
		require.NoError(t, err)
		require.Len(t, expenses, 2)
		require.Equal(t, "Bread", expenses[0].Name)
		require.Equal(t, "Jam", expenses[1].Name)
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		expenses, err := store.ListByUser(ctx, 1)
		require.NoError(t, err)
		expenses[0].Name = "changed"

		again, err := store.ListByUser(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "Bread", again[0].Name)
	})

	t.Run("get by id respects ownership", func(t *testing.T) {
		expenses, err := store.ListByUser(ctx, 1)
		require.NoError(t, err)

		got, err := store.GetByID(ctx, 1, expenses[0].ID)
		require.NoError(t, err)
		require.Equal(t, expenses[0].ID, got.ID)

		_, err = store.GetByID(ctx, 2, expenses[0].ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	_, err := store.GetUserByID(ctx, 5)
	require.Error(t, err)

	require.NoError(t, store.UpsertUser(ctx, &models.User{ID: 5, Username: "first"}))
	created, err := store.GetUserByID(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, store.UpsertUser(ctx, &models.User{ID: 5, Username: "second"}))
	updated, err := store.GetUserByID(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "second", updated.Username)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestMemoryStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	store := NewMemoryStore(notifier)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Create(ctx, newExpense(9, "x", "1", time.Now()))
		}()
	}
	wg.Wait()

	expenses, err := store.ListByUser(ctx, 9)
	require.NoError(t, err)
	require.Len(t, expenses, 20)
	require.Len(t, notifier.users, 20)
}
