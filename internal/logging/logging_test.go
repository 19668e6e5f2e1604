package logging

import (
	"testing"

	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for name, want := range tests {
		if got := Level(name); got != want {
			t.Fatalf("Level(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := New(config.LoggingConfig{Level: "warn", Format: format})
		if err != nil {
			t.Fatalf("New(%s): %v", format, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Fatalf("%s logger should not log info at warn level", format)
		}
		if !logger.Core().Enabled(zapcore.ErrorLevel) {
			t.Fatalf("%s logger should log errors", format)
		}
	}
}
