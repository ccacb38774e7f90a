package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/expense-tracker/internal/database"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
)

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create validates and stores a new expense. The id is assigned here and
// must not be set by the caller.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if err := expense.Validate(); err != nil {
		return fmt.Errorf("invalid expense: %w", err)
	}
	if expense.ID != "" {
		return fmt.Errorf("expense id is assigned by the store, got %q", expense.ID)
	}

	id := uuid.NewString()
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (id, user_id, name, price, expense_date, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, id, expense.UserID, expense.Name, expense.Price, nullableDate(expense.Date), expense.Location,
	).Scan(&expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	expense.ID = id
	return nil
}

// GetByID retrieves one of the user's expenses.
func (r *ExpenseRepository) GetByID(ctx context.Context, userID int64, id string) (*models.Expense, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, price, expense_date, location, created_at
		FROM expenses WHERE id = $1 AND user_id = $2
	`, id, userID)

	exp, err := scanExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &exp, nil
}

// ListByUser returns every expense owned by the user in insertion order.
func (r *ExpenseRepository) ListByUser(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, price, expense_date, location, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY seq
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

func scanExpense(row pgx.Row) (models.Expense, error) {
	var exp models.Expense
	var date *time.Time
	if err := row.Scan(
		&exp.ID, &exp.UserID, &exp.Name, &exp.Price, &date, &exp.Location, &exp.CreatedAt,
	); err != nil {
		return models.Expense{}, err
	}
	if date != nil {
		exp.Date = *date
	}
	return exp, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
