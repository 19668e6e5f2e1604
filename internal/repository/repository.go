// Package repository stores finished match records.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no record matches the id.
var ErrNotFound = errors.New("match record not found")

// Match statuses.
const (
	StatusFinished = "finished"
	StatusAborted  = "aborted"
)

// MatchRecord is the persisted summary of one match. Winner is -1 for a
// draw or an aborted match.
type MatchRecord struct {
	ID            string
	Status        string
	Seed          int64
	Decks         [2][]string
	Leaders       [2]string
	PlayerTypes   [2]string
	Winner        int
	SkirmishesWon [2]int
	Turns         int
	Checksum      string
	Log           []byte
	CreatedAt     time.Time
	FinishedAt    time.Time
}

// MatchStore persists match records.
type MatchStore interface {
	SaveMatch(ctx context.Context, rec MatchRecord) error
	GetMatch(ctx context.Context, id string) (MatchRecord, error)
	// ListMatches returns the most recently finished records first.
	ListMatches(ctx context.Context, limit int) ([]MatchRecord, error)
	Close() error
}

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (MatchStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case config.DriverMemory, "":
		logger.Info("using in-memory match store")
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, cfg.MaxConns, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func validate(rec MatchRecord) error {
	if rec.ID == "" {
		return errors.New("match record id is required")
	}
	return nil
}

// row is the column form shared by the SQL stores.
type row struct {
	decks, leaders, playerTypes, won string
}

func encodeRow(rec MatchRecord) (row, error) {
	var r row
	for _, f := range []struct {
		dst *string
		v   any
	}{
		{&r.decks, rec.Decks},
		{&r.leaders, rec.Leaders},
		{&r.playerTypes, rec.PlayerTypes},
		{&r.won, rec.SkirmishesWon},
	} {
		data, err := json.Marshal(f.v)
		if err != nil {
			return row{}, fmt.Errorf("encode match record: %w", err)
		}
		*f.dst = string(data)
	}
	return r, nil
}

func decodeRow(r row, rec *MatchRecord) error {
	for _, f := range []struct {
		src string
		dst any
	}{
		{r.decks, &rec.Decks},
		{r.leaders, &rec.Leaders},
		{r.playerTypes, &rec.PlayerTypes},
		{r.won, &rec.SkirmishesWon},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return fmt.Errorf("decode match record: %w", err)
		}
	}
	return nil
}
