package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangeChannel is the NOTIFY channel raised on every expense write.
// The payload is the owning user's id.
const ChangeChannel = "expenses_changed"

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			seq BIGINT GENERATED ALWAYS AS IDENTITY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
			expense_date TIMESTAMPTZ,
			location TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_expenses_user_id ON expenses(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_seq ON expenses(user_id, seq)`,

		`CREATE OR REPLACE FUNCTION notify_expenses_changed() RETURNS trigger AS $$
		BEGIN
			IF TG_OP = 'DELETE' THEN
				PERFORM pg_notify('` + ChangeChannel + `', OLD.user_id::text);
			ELSE
				PERFORM pg_notify('` + ChangeChannel + `', NEW.user_id::text);
			END IF;
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`,

		`DROP TRIGGER IF EXISTS expenses_changed ON expenses`,

		`CREATE TRIGGER expenses_changed
			AFTER INSERT OR UPDATE OR DELETE ON expenses
			FOR EACH ROW EXECUTE FUNCTION notify_expenses_changed()`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
