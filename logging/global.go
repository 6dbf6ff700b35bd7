package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/protocolos-api/config"
)

const (
	defaultRetentionWeeks = 4
	defaultMaxFileSize    = 100 * 1024 * 1024
)

// LoggingService owns the process logger and the file it writes to, if any
type LoggingService struct {
	Logger         *slog.Logger
	RotatingLogger *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger with development defaults.
// An empty logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithEnvironment(logDir, config.EnvDevelopment, "", defaultRetentionWeeks, defaultMaxFileSize)
}

// InitLoggerWithEnvironment initializes the global logger for an environment.
// logLevel overrides the environment's console level when set.
func InitLoggerWithEnvironment(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	// Release the previous log file so re-initialisation does not leak descriptors
	Close()

	logger, rotating := setupLogger(logDir, GetConsoleLogLevel(env, logLevel), retentionWeeks, maxFileSize)
	DefaultLoggingService = &LoggingService{
		Logger:         logger,
		RotatingLogger: rotating,
	}
	slog.SetDefault(logger)
}

// Close flushes and closes the log file of the global logger
func Close() {
	if DefaultLoggingService == nil || DefaultLoggingService.RotatingLogger == nil {
		return
	}
	if err := DefaultLoggingService.RotatingLogger.Close(); err != nil {
		slog.Warn("Failed to close log file", "error", err)
	}
	DefaultLoggingService.RotatingLogger = nil
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel returns the console level for an environment.
// Tests stay quiet, production only shows warnings, an explicit level wins.
func GetConsoleLogLevel(env config.Environment, logLevel string) slog.Level {
	if strings.TrimSpace(logLevel) != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvTest:
		return slog.LevelError
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level of the file handler, which keeps everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// current returns the global logger, or a console fallback at the given level
func current(level slog.Level) *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
	}
	return DefaultLoggingService.Logger
}

// Logger returns the global logger, for middleware that needs a *slog.Logger
func Logger() *slog.Logger {
	return current(slog.LevelInfo)
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	current(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	current(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	current(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	current(slog.LevelDebug).Debug(msg, args...)
}
