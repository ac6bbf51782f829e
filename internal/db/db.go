// Package db owns the Postgres connection pool and the schema.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	balance       NUMERIC(18,4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS positions (
	user_id   UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	symbol    TEXT NOT NULL,
	quantity  BIGINT NOT NULL CHECK (quantity > 0),
	avg_price NUMERIC(18,8) NOT NULL CHECK (avg_price > 0),
	PRIMARY KEY (user_id, symbol)
);

CREATE TABLE IF NOT EXISTS transactions (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	symbol       TEXT NOT NULL,
	name         TEXT NOT NULL,
	side         TEXT NOT NULL CHECK (side IN ('buy','sell')),
	quantity     BIGINT NOT NULL CHECK (quantity > 0),
	price        NUMERIC(18,4) NOT NULL CHECK (price > 0),
	total_amount NUMERIC(18,4) NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
	processed_by UUID REFERENCES users(id),
	processed_at TIMESTAMPTZ,
	notes        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS transactions_user_created ON transactions (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS watchlist (
	user_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	symbol   TEXT NOT NULL,
	name     TEXT NOT NULL,
	added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, symbol)
);
`

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Migrate applies the schema. Idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
