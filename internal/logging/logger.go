package logging

import (
	"fmt"

	"github.com/mikey/anomaly-classifier/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a configured level name to a zap level, defaulting to info
func ParseLevel(name string) zapcore.Level {
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

// NewLevel creates the shared atomic level from configuration
func NewLevel(cfg *config.Config) zap.AtomicLevel {
	return zap.NewAtomicLevelAt(ParseLevel(cfg.GetLogging().Level))
}

// InitLogger initializes a logger based on configuration
func InitLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	return build(cfg.GetLogging().Format == "json", level)
}

// InitConsoleLogger initializes a console-friendly logger
func InitConsoleLogger(verbose bool, jsonFormat bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	return build(jsonFormat, level)
}

// WatchLevel applies logging.level changes from the config file to level
func WatchLevel(cfg *config.Config, level zap.AtomicLevel, logger *zap.Logger) {
	cfg.Watch(logger, func(c *config.Config) {
		next := ParseLevel(c.GetLogging().Level)
		if next == level.Level() {
			return
		}
		logger.Info("Log level changed",
			zap.Stringer("from", level.Level()),
			zap.Stringer("to", next))
		level.SetLevel(next)
	})
}

func build(jsonFormat bool, level zap.AtomicLevel) (*zap.Logger, error) {
	var logConfig zap.Config
	if jsonFormat {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logConfig.Level = level

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
