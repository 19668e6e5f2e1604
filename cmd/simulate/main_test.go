package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunExportsLogs(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverMemory},
		Match:   config.MatchConfig{Decks: []string{"balanced", "control"}},
	}
	dir := filepath.Join(t.TempDir(), "logs")

	err := run(context.Background(), cfg, options{from: 40, count: 3, exportDir: dir, showBoard: true, persist: true}, zap.NewNop())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.FileExists(t, filepath.Join(dir, "match-41.json"))
}

func TestRunRejectsUnknownDeck(t *testing.T) {
	cfg := &config.Config{Match: config.MatchConfig{Decks: []string{"nope", "aggro"}}}
	err := run(context.Background(), cfg, options{from: 1, count: 1}, zap.NewNop())
	assert.Error(t, err)
}
