// Package logging builds the zap logger used across the program.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction
type Options struct {
	Level string // debug, info, warn, error
	// StderrOnly sends every level to stderr. Used in stdio mode where stdout
	// carries the MCP protocol.
	StderrOnly bool
	Name       string
}

// ParseLevel converts a config log level into a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
	}
}

// New returns a console logger. Info and below go to stdout, errors to
// stderr, unless StderrOnly is set.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	return newLogger(opts, level, os.Stdout, os.Stderr), nil
}

func newLogger(opts Options, level zapcore.Level, stdout, stderr io.Writer) *zap.Logger {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(ec)

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= level && lvl >= zapcore.ErrorLevel
	})
	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= level && lvl < zapcore.ErrorLevel
	})

	low := zapcore.AddSync(stdout)
	if opts.StderrOnly {
		low = zapcore.AddSync(stderr)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(low), lowPriority),
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stderr)), highPriority),
	)

	logger := zap.New(core)
	if opts.Name != "" {
		logger = logger.Named(opts.Name)
	}
	return logger
}
