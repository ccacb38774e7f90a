package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/expense-tracker/internal/database"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
)

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser creates or updates a user.
func (r *UserRepository) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW()
	`, user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their Telegram ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	var username, firstName, lastName *string
	err := r.db.QueryRow(ctx, `
		SELECT id, username, first_name, last_name, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &username, &firstName, &lastName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Username = deref(username)
	user.FirstName = deref(firstName)
	user.LastName = deref(lastName)
	return &user, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
