package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXDB is an interface that both pgxpool.Pool and pgx.Tx implement.
// Repositories accept it so tests can run them inside a rolled-back transaction.
type PGXDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConnAcquirer hands out a dedicated connection, needed for LISTEN.
type ConnAcquirer interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

var (
	_ PGXDB        = (*pgxpool.Pool)(nil)
	_ PGXDB        = (pgx.Tx)(nil)
	_ ConnAcquirer = (*pgxpool.Pool)(nil)
)
