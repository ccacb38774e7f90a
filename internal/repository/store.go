// Package repository persists users and expenses.
package repository

import (
	"context"
	"errors"

	"gitlab.com/yelinaung/expense-tracker/internal/models"
)

// ErrNotFound is returned when an expense does not exist or belongs to another user.
var ErrNotFound = errors.New("expense not found")

// ExpenseStore is the record store used by the bot and the snapshot watcher.
type ExpenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, userID int64, id string) (*models.Expense, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Expense, error)
}

// UserStore records users seen by the bot.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

var (
	_ ExpenseStore = (*ExpenseRepository)(nil)
	_ ExpenseStore = (*MemoryStore)(nil)
	_ UserStore    = (*UserRepository)(nil)
	_ UserStore    = (*MemoryStore)(nil)
)
