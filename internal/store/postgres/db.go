package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) Ready(ctx context.Context) error {
	var one int
	return db.Pool.QueryRow(ctx, "select 1").Scan(&one)
}

// EnsureSchema creates the events table if it is missing. The unique
// constraint mirrors the feed's identity key.
func (db *DB) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS events (
    title       text        NOT NULL,
    start_time  timestamptz NOT NULL,
    location    text        NOT NULL DEFAULT '',
    description text,
    image_url   text,
    source_url  text        NOT NULL,
    category    text        NOT NULL,
    is_free     boolean     NOT NULL,
    updated_at  timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (title, start_time, location)
)`
	_, err := db.Pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
