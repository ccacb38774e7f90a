package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gitlab.com/yelinaung/expense-tracker/internal/database"
	"gitlab.com/yelinaung/expense-tracker/internal/logger"
)

const defaultRetryDelay = 5 * time.Second

// Notifier is the part of Hub the change feed drives.
type Notifier interface {
	Notify(userID int64)
	NotifyAll()
}

// PGListener turns PostgreSQL NOTIFY events on database.ChangeChannel into
// hub notifications.
type PGListener struct {
	pool       database.ConnAcquirer
	notifier   Notifier
	retryDelay time.Duration
}

// NewPGListener creates a listener that feeds notifier.
func NewPGListener(pool database.ConnAcquirer, notifier Notifier) *PGListener {
	return &PGListener{
		pool:       pool,
		notifier:   notifier,
		retryDelay: defaultRetryDelay,
	}
}

// Run listens until ctx is cancelled, reconnecting after failures.
func (l *PGListener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			logger.Log.Info().Msg("Change listener stopped")
			return
		}
		logger.Log.Warn().Err(err).Dur("retry_in", l.retryDelay).Msg("Change listener disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = conn.Exec(cleanupCtx, "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+database.ChangeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", database.ChangeChannel, err)
	}
	logger.Log.Info().Str("channel", database.ChangeChannel).Msg("Change listener connected")

	// Changes made while disconnected were not observed.
	l.notifier.NotifyAll()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed to wait for notification: %w", err)
		}

		userID, err := parsePayload(n.Payload)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Ignoring malformed change notification")
			continue
		}
		l.notifier.Notify(userID)
	}
}

func parsePayload(payload string) (int64, error) {
	userID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id payload %q: %w", payload, err)
	}
	return userID, nil
}
