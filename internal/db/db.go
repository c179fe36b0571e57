package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homegoods/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool and verifies connectivity with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// InTx runs fn inside a read-committed transaction and commits when fn
// returns nil. Errors are translated with MapError.
func InTx(ctx context.Context, pool *pgxpool.Pool, op string, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return MapError(op, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return MapError(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return MapError(op, err)
	}
	return nil
}

// MapError turns driver errors into domain errors. Domain errors pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w (%s)", op, domain.ErrAlreadyExists, pgErr.ConstraintName)
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%s: %w (%s)", op, domain.ErrConflict, pgErr.Code)
		case "23503":
			return fmt.Errorf("%s: %w (%s)", op, domain.ErrNotFound, pgErr.ConstraintName)
		case "22P02":
			// malformed uuid in a lookup
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
	}
	return domain.AsStorage(op, err)
}
