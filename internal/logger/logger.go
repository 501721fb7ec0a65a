// Package logger builds the zap logger shared by every component.
package logger

import (
	"log"
	"strings"

	"bankcore/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a console logger in development.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	return zc.Build()
}

// ParseLevel maps a level name to a zap level; unknown names mean info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// StdLog exposes l through the standard library logger interface for
// libraries that only accept a Printf-style writer.
func StdLog(l *zap.Logger) *log.Logger {
	return zap.NewStdLog(l.WithOptions(zap.AddCallerSkip(1)))
}
