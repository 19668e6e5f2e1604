package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func record(id string, finished time.Time) MatchRecord {
	return MatchRecord{
		ID:            id,
		Status:        StatusFinished,
		Seed:          42,
		Decks:         [2][]string{{"veteran", "archer"}, {"scout"}},
		Leaders:       [2]string{"sage", ""},
		PlayerTypes:   [2]string{"ai", "human"},
		Winner:        1,
		SkirmishesWon: [2]int{0, 2},
		Turns:         17,
		Checksum:      "0123456789abcdef",
		Log:           []byte(`{"entries":[]}`),
		CreatedAt:     finished.Add(-time.Minute),
		FinishedAt:    finished,
	}
}

// exerciseStore runs the behaviour every MatchStore must share.
func exerciseStore(t *testing.T, store MatchStore) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.GetMatch(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.SaveMatch(ctx, MatchRecord{}))

	require.NoError(t, store.SaveMatch(ctx, record("a", base)))
	require.NoError(t, store.SaveMatch(ctx, record("b", base.Add(time.Hour))))
	require.NoError(t, store.SaveMatch(ctx, record("c", base.Add(-time.Hour))))

	got, err := store.GetMatch(ctx, "a")
	require.NoError(t, err)
	want := record("a", base)
	assert.Equal(t, want.Decks, got.Decks)
	assert.Equal(t, want.Leaders, got.Leaders)
	assert.Equal(t, want.PlayerTypes, got.PlayerTypes)
	assert.Equal(t, want.SkirmishesWon, got.SkirmishesWon)
	assert.Equal(t, want.Winner, got.Winner)
	assert.Equal(t, want.Seed, got.Seed)
	assert.Equal(t, want.Checksum, got.Checksum)
	assert.Equal(t, want.Log, got.Log)
	assert.True(t, want.FinishedAt.Equal(got.FinishedAt))

	updated := record("a", base)
	updated.Status = StatusAborted
	updated.Winner = -1
	require.NoError(t, store.SaveMatch(ctx, updated))
	got, err = store.GetMatch(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StatusAborted, got.Status)
	assert.Equal(t, -1, got.Winner)

	list, err := store.ListMatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, err = store.ListMatches(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, store.Close())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "matches.db"), zap.NewNop())
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestSQLiteStoreReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "matches.db")
	store, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveMatch(ctx, record("kept", time.Now())))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.GetMatch(ctx, "kept")
	assert.NoError(t, err)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SKIRMISH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SKIRMISH_TEST_POSTGRES_DSN not set")
	}
	store, err := OpenPostgres(context.Background(), dsn, 4, zap.NewNop())
	require.NoError(t, err)
	_, err = store.pool.Exec(context.Background(), `TRUNCATE matches`)
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestOpenSelectsDriver(t *testing.T) {
	store, err := Open(context.Background(), config.StorageConfig{Driver: config.DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(context.Background(), config.StorageConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "x.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(context.Background(), config.StorageConfig{Driver: "mongo"}, nil)
	assert.Error(t, err)
}
