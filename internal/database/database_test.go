package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a malformed URL before dialing", func(t *testing.T) {
		pool, err := Connect(ctx, "invalid://connection")
		require.ErrorContains(t, err, "unable to parse database URL")
		require.Nil(t, pool)
	})

	t.Run("closes the pool when the server is unreachable", func(t *testing.T) {
		pool, err := Connect(ctx, "postgres://localhost:59999/expenses?connect_timeout=1")
		require.ErrorContains(t, err, "unable to ping database")
		require.Nil(t, pool)
	})

	t.Run("installs the query tracer", func(t *testing.T) {
		pool := TestPool(t)
		require.NotNil(t, pool.Config().ConnConfig.Tracer)
	})
}
