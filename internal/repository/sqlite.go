package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id             TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	seed           INTEGER NOT NULL,
	decks          TEXT NOT NULL,
	leaders        TEXT NOT NULL,
	player_types   TEXT NOT NULL,
	winner         INTEGER NOT NULL,
	skirmishes_won TEXT NOT NULL,
	turns          INTEGER NOT NULL,
	checksum       TEXT NOT NULL,
	log            BLOB,
	created_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS matches_finished_at ON matches (finished_at DESC);
`

const matchColumns = `id, status, seed, decks, leaders, player_types, winner, skirmishes_won, turns, checksum, log, created_at, finished_at`

// SQLiteStore keeps records in a single sqlite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (or creates) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	logger.Info("sqlite match store opened", zap.String("path", path))
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) SaveMatch(ctx context.Context, rec MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	r, err := encodeRow(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO matches (`+matchColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	winner = excluded.winner,
	skirmishes_won = excluded.skirmishes_won,
	turns = excluded.turns,
	checksum = excluded.checksum,
	log = excluded.log,
	finished_at = excluded.finished_at`,
		rec.ID, rec.Status, rec.Seed, r.decks, r.leaders, r.playerTypes, rec.Winner, r.won,
		rec.Turns, rec.Checksum, rec.Log, rec.CreatedAt.UnixMilli(), rec.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save match %s: %w", rec.ID, err)
	}
	s.logger.Debug("match record saved", zap.String("match_id", rec.ID))
	return nil
}

func (s *SQLiteStore) GetMatch(ctx context.Context, id string) (MatchRecord, error) {
	rec, err := scanSQLite(s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return MatchRecord{}, ErrNotFound
	}
	if err != nil {
		return MatchRecord{}, fmt.Errorf("get match %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY finished_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(sc scanner) (MatchRecord, error) {
	var (
		rec               MatchRecord
		r                 row
		created, finished int64
	)
	if err := sc.Scan(&rec.ID, &rec.Status, &rec.Seed, &r.decks, &r.leaders, &r.playerTypes,
		&rec.Winner, &r.won, &rec.Turns, &rec.Checksum, &rec.Log, &created, &finished); err != nil {
		return MatchRecord{}, err
	}
	if err := decodeRow(r, &rec); err != nil {
		return MatchRecord{}, err
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.FinishedAt = time.UnixMilli(finished).UTC()
	return rec, nil
}
