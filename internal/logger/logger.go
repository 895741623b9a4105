package logger

import (
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

var current atomic.Pointer[slog.Logger]

// Init configures the global logger.
// env "development" gives a debug-level text handler, anything else JSON at info level.
func Init(env string) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	l := slog.New(handler)
	current.Store(l)
	slog.SetDefault(l)
}

// SetLogger replaces the global logger, used by tests to capture output
func SetLogger(l *slog.Logger) {
	current.Store(l)
}

// GetLogger falls back to slog.Default until Init or SetLogger is called.
func GetLogger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatal logs and exits with status 1
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}

func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}

// ============================================
// Specialised loggers
// ============================================

// GatewayLog records one call to the payment gateway
func GatewayLog(operation, merchantUid string, duration time.Duration, err error) {
	fields := []any{
		"operation", operation,
		"merchant_uid", merchantUid,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("gateway call failed", fields...)
	} else {
		GetLogger().Info("gateway call", fields...)
	}
}

// CommandLog records the outcome of a payment command
func CommandLog(command, strategy, merchantUid string, duration time.Duration, err error) {
	fields := []any{
		"command", command,
		"strategy", strategy,
		"merchant_uid", merchantUid,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Warn("payment command failed", fields...)
	} else {
		GetLogger().Info("payment command completed", fields...)
	}
}

// WorkerLog records a background worker run
func WorkerLog(worker, operation string, err error) {
	fields := []any{
		"worker", worker,
		"operation", operation,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("worker operation failed", fields...)
	} else {
		GetLogger().Info("worker operation completed", fields...)
	}
}
