package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id             TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	seed           BIGINT NOT NULL,
	decks          JSONB NOT NULL,
	leaders        JSONB NOT NULL,
	player_types   JSONB NOT NULL,
	winner         INTEGER NOT NULL,
	skirmishes_won JSONB NOT NULL,
	turns          INTEGER NOT NULL,
	checksum       TEXT NOT NULL,
	log            BYTEA,
	created_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS matches_finished_at ON matches (finished_at DESC);
`

// PostgresStore keeps records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// OpenPostgres connects a pool to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}

	stats := pool.Stat()
	logger.Info("postgres match store opened",
		zap.Int32("max_conns", stats.MaxConns()),
		zap.Int32("total_conns", stats.TotalConns()),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) SaveMatch(ctx context.Context, rec MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	r, err := encodeRow(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO matches (`+matchColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	winner = EXCLUDED.winner,
	skirmishes_won = EXCLUDED.skirmishes_won,
	turns = EXCLUDED.turns,
	checksum = EXCLUDED.checksum,
	log = EXCLUDED.log,
	finished_at = EXCLUDED.finished_at`,
		rec.ID, rec.Status, rec.Seed, r.decks, r.leaders, r.playerTypes, rec.Winner, r.won,
		rec.Turns, rec.Checksum, rec.Log, rec.CreatedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save match %s: %w", rec.ID, err)
	}
	s.logger.Debug("match record saved", zap.String("match_id", rec.ID))
	return nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (MatchRecord, error) {
	rec, err := scanPostgres(s.pool.QueryRow(ctx, `SELECT `+pgSelectColumns+` FROM matches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return MatchRecord{}, ErrNotFound
	}
	if err != nil {
		return MatchRecord{}, fmt.Errorf("get match %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	query := `SELECT ` + pgSelectColumns + ` FROM matches ORDER BY finished_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// JSONB columns are read back as text so both SQL stores share decodeRow.
const pgSelectColumns = `id, status, seed, decks::text, leaders::text, player_types::text, winner, skirmishes_won::text, turns, checksum, log, created_at, finished_at`

func scanPostgres(sc pgx.Row) (MatchRecord, error) {
	var (
		rec MatchRecord
		r   row
	)
	if err := sc.Scan(&rec.ID, &rec.Status, &rec.Seed, &r.decks, &r.leaders, &r.playerTypes,
		&rec.Winner, &r.won, &rec.Turns, &rec.Checksum, &rec.Log, &rec.CreatedAt, &rec.FinishedAt); err != nil {
		return MatchRecord{}, err
	}
	if err := decodeRow(r, &rec); err != nil {
		return MatchRecord{}, err
	}
	return rec, nil
}
