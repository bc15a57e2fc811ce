// Package logging configures the structured JSON logger shared by every
// pipeline stage: one object per line with "level", "logger", "message",
// and arbitrary structured extras.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger named for the given stage
// (e.g. "normalizer", "filter"), encoding to JSON with the field names
// the pipeline's log contract expects.
func New(stage string, level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(stage), nil
}

// ParseLevel maps the SIEM_LOG_LEVEL environment value onto a zapcore
// level, defaulting to info for anything unrecognized.
func ParseLevel(raw string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
