package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
)

// ChangeNotifier is told which user's records changed after every write.
type ChangeNotifier interface {
	Notify(userID int64)
}

// MemoryStore is an in-process ExpenseStore and UserStore. Writes notify
// the configured ChangeNotifier after the lock is released.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	expenses []models.Expense
	notifier ChangeNotifier
	now      func() time.Time
}

// NewMemoryStore creates an empty store. notifier may be nil.
func NewMemoryStore(notifier ChangeNotifier) *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]models.User),
		notifier: notifier,
		now:      time.Now,
	}
}

// SetNotifier replaces the change notifier.
func (s *MemoryStore) SetNotifier(n ChangeNotifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// Create validates and stores a new expense, assigning its id.
func (s *MemoryStore) Create(_ context.Context, expense *models.Expense) error {
	if err := expense.Validate(); err != nil {
		return fmt.Errorf("invalid expense: %w", err)
	}
	if expense.ID != "" {
		return fmt.Errorf("expense id is assigned by the store, got %q", expense.ID)
	}

	s.mu.Lock()
	expense.ID = uuid.NewString()
	expense.CreatedAt = s.now()
	s.expenses = append(s.expenses, *expense)
	notifier := s.notifier
	s.mu.Unlock()

	if notifier != nil {
		notifier.Notify(expense.UserID)
	}
	return nil
}

// GetByID retrieves one of the user's expenses.
func (s *MemoryStore) GetByID(_ context.Context, userID int64, id string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			exp := e
			return &exp, nil
		}
	}
	return nil, ErrNotFound
}

// ListByUser returns a copy of the user's expenses in insertion order.
func (s *MemoryStore) ListByUser(_ context.Context, userID int64) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// UpsertUser creates or updates a user.
func (s *MemoryStore) UpsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.users[user.ID]
	u := *user
	u.UpdatedAt = now
	if ok {
		u.CreatedAt = existing.CreatedAt
	} else {
		u.CreatedAt = now
	}
	s.users[user.ID] = u
	return nil
}

// GetUserByID retrieves a user by their Telegram ID.
func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: user %d not found", id)
	}
	return &u, nil
}
