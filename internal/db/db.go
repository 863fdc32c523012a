package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations runs database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rounds (
			id UUID PRIMARY KEY,
			map_id TEXT NOT NULL,
			channel_id TEXT NOT NULL DEFAULT '',
			player_id TEXT NOT NULL DEFAULT '',
			tweet_index INTEGER NOT NULL,
			clues_revealed INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			answer_lat DOUBLE PRECISION NOT NULL,
			answer_lng DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			closed_at TIMESTAMPTZ
		);
		-- One active round per Discord channel; web rounds have no channel.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_active_channel
			ON rounds(channel_id) WHERE status = 'active' AND channel_id <> '';
		CREATE INDEX IF NOT EXISTS idx_rounds_active_created
			ON rounds(created_at) WHERE status = 'active';

		CREATE TABLE IF NOT EXISTS guesses (
			round_id UUID NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
			player_id TEXT NOT NULL,
			player_name TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			pixel_x DOUBLE PRECISION,
			pixel_y DOUBLE PRECISION,
			source TEXT NOT NULL,
			score INTEGER,
			distance_meters DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (round_id, player_id)
		);
	`)
	return err
}
