// Package logging builds the logger shared by all commands.
package logging

import (
	"fmt"
	"os"

	"github.com/luxfi/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the logger settings
type Config struct {
	Level string

	// File, when set, receives JSON logs in addition to stderr
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// NewLogger creates a named logger writing terminal lines to stderr and,
// optionally, JSON lines to a rotating file. The returned func flushes the
// logger and closes the file.
//
// Stdout is left to command output, so the console core is built here
// rather than by a log.Factory.
func NewLogger(name string, cfg Config) (log.Logger, func(), error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}

	cores := []zapcore.Core{
		zapcore.NewCore(log.Colors.ConsoleEncoder(), zapcore.Lock(os.Stderr), level),
	}

	var rotator *lumberjack.Logger
	if cfg.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(log.JSON.FileEncoder(), zapcore.AddSync(rotator), level))
	}

	logger := log.NewZapLogger(zap.New(zapcore.NewTee(cores...)).Named(name))
	closeFn := func() {
		logger.Stop()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return logger, closeFn, nil
}

// NewNop returns a logger that discards everything
func NewNop() log.Logger {
	return log.NewNoOpLogger()
}
