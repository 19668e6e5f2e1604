package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":50051", cfg.Server.GRPC.Address)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, []string{"balanced", "aggro"}, cfg.Match.Decks)
	assert.Equal(t, 5*time.Minute, cfg.Match.ActionTimeout)
	assert.Equal(t, 1000, cfg.Match.MaxStackIter)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SeatTokenTTL)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
server:
  grpc:
    address: 127.0.0.1:6000
storage:
  driver: memory
match:
  seed: 42
  decks: [control, aggro]
  leaders: [commander, warlord]
  action_timeout: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:6000", cfg.Server.GRPC.Address)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, int64(42), cfg.Match.Seed)
	assert.Equal(t, []string{"control", "aggro"}, cfg.Match.Decks)
	assert.Equal(t, []string{"commander", "warlord"}, cfg.Match.Leaders)
	assert.Equal(t, 30*time.Second, cfg.Match.ActionTimeout)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SKIRMISH_SERVER_GRPC_ADDRESS", ":7000")
	t.Setenv("SKIRMISH_STORAGE_DRIVER", "memory")
	t.Setenv("SKIRMISH_AUTH_SEAT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.GRPC.Address)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.SeatSecret)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{"unknown driver", "storage:\n  driver: mongo\n", "unknown storage driver"},
		{"postgres without dsn", "storage:\n  driver: postgres\n  dsn: \"\"\n", "storage.dsn is required"},
		{"too many decks", "match:\n  decks: [a, b, c]\n", "at most two"},
		{"telemetry without endpoint", "telemetry:\n  enabled: true\n", "telemetry.endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "logging: [\n"))
	assert.Error(t, err)
}
