// Package logging is the process-wide zap logger. Output goes to stderr by
// default so it does not interleave with the shell on stdout.
package logging

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	current atomic.Pointer[zap.Logger]
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stderr (default), stdout, or a file path
}

// Init builds the global logger. An unknown level falls back to info.
func Init(cfg Config) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)

	out := cfg.OutputPath
	if out == "" {
		out = "stderr"
	}
	sink, _, err := zap.Open(out)
	if err != nil {
		return fmt.Errorf("open log output %s: %w", out, err)
	}

	core := zapcore.NewCore(encoder(cfg.Format), sink, level)
	current.Store(zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	))
	return nil
}

func encoder(format string) zapcore.Encoder {
	if format == "json" {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(ec)
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func parseLevel(s string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

// InitDefault installs a console logger at the current level.
func InitDefault() {
	_ = Init(Config{Level: level.String(), Format: "console"})
}

// ReplaceForTest swaps the global logger and returns a function restoring
// the previous one.
func ReplaceForTest(logger *zap.Logger) func() {
	prev := current.Swap(logger)
	return func() { current.Store(prev) }
}

// Sync flushes any buffered log entries.
func Sync() error {
	if l := current.Load(); l != nil {
		return l.Sync()
	}
	return nil
}

// SetLevel changes the level at runtime; invalid levels are ignored.
func SetLevel(s string) {
	if l, err := parseLevel(s); err == nil {
		level.SetLevel(l)
	}
}

// L returns the global logger, installing the default one on first use.
func L() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	InitDefault()
	return current.Load()
}

// S returns the global sugared logger.
func S() *zap.SugaredLogger {
	return L().Sugar()
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// Fatal logs and exits with status 1.
func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }

func String(key, val string) zap.Field { return zap.String(key, val) }
func Int(key string, val int) zap.Field { return zap.Int(key, val) }
func Err(err error) zap.Field { return zap.Error(err) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }

// Storage is the field for storage indexes.
func Storage(index int) zap.Field { return zap.Int("storage", index) }

// Path is the field for absolute host paths.
func Path(path string) zap.Field { return zap.String("path", path) }
