// Package logging builds the zap logger used by every binary.
package logging

import (
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New initializes the zap logger based on configuration. Both encoders
// write to stderr, which keeps stdout free for the MCP stdio transport.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(Level(cfg.Level))
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

// Level maps a config level name to a zap level. Unknown names are info.
func Level(name string) zapcore.Level {
	switch name {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
