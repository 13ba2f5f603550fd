package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrNoSnapshot is returned when a game has no stored snapshot.
var ErrNoSnapshot = errors.New("no snapshot stored for game")

const schema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	id         BIGSERIAL PRIMARY KEY,
	game_id    TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	data       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_game_snapshots_game_id
	ON game_snapshots (game_id, created_at DESC);
`

// EnsureSchema creates the snapshot table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating snapshot schema: %w", err)
	}
	return nil
}

// SaveSnapshot stores an encoded snapshot for a game.
func (db *DB) SaveSnapshot(ctx context.Context, gameID string, data []byte, checksum string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO game_snapshots (game_id, checksum, data) VALUES ($1, $2, $3)`,
		gameID, checksum, data)
	if err != nil {
		return fmt.Errorf("saving snapshot for %s: %w", gameID, err)
	}
	db.logger.Debug("snapshot saved",
		zap.String("game_id", gameID),
		zap.String("checksum", checksum),
		zap.Int("bytes", len(data)))
	return nil
}

// LoadLatestSnapshot returns the most recent snapshot for a game.
func (db *DB) LoadLatestSnapshot(ctx context.Context, gameID string) ([]byte, string, error) {
	var data []byte
	var checksum string
	err := db.pool.QueryRow(ctx,
		`SELECT data, checksum FROM game_snapshots
		 WHERE game_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		gameID).Scan(&data, &checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrNoSnapshot
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading snapshot for %s: %w", gameID, err)
	}
	return data, checksum, nil
}

// PruneSnapshots deletes snapshots older than the retention window,
// always keeping the newest one per game.
func (db *DB) PruneSnapshots(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM game_snapshots s
		 WHERE s.created_at < now() - make_interval(secs => $1)
		   AND s.id <> (
			SELECT id FROM game_snapshots
			WHERE game_id = s.game_id
			ORDER BY created_at DESC, id DESC LIMIT 1
		 )`,
		retention.Seconds())
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
