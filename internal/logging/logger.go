// Package logging provides the diagnostic logger for color-ssh.
// Labeled task output never goes through this package.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mogproject/color-ssh/internal/stats"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Config holds logging configuration
type Config struct {
	Level  LogLevel  // Minimum log level to output
	Format LogFormat // Output format (json or text)
	Output io.Writer // Output destination (defaults to stderr)
	Quiet  bool      // If true, suppress non-error output
}

// Logger wraps slog.Logger
type Logger struct {
	logger *slog.Logger
	config Config
}

// NewLogger creates a new logger instance
func NewLogger(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: convertLogLevel(config.Level),
	}

	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &Logger{
		logger: slog.New(handler),
		config: config,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(Config{Level: LevelError, Output: io.Discard, Quiet: true})
}

func convertLogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	if l.config.Quiet {
		return
	}
	l.logger.Debug(msg, args...)
}

// Info logs an informational message
func (l *Logger) Info(msg string, args ...any) {
	if l.config.Quiet {
		return
	}
	l.logger.Info(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// LogConfigLoad logs configuration loading events
func (l *Logger) LogConfigLoad(source string) {
	l.Info("configuration loaded", "source", source)
}

// LogHostsLoaded logs how many host tokens a source contributed
func (l *Logger) LogHostsLoaded(source string, count int) {
	l.Info("hosts loaded",
		"source", source,
		"count", count,
	)
}

// LogPlan logs the outcome of task planning
func (l *Logger) LogPlan(taskCount int, distributed bool, parallelism int) {
	l.Info("tasks planned",
		"task_count", taskCount,
		"distributed", distributed,
		"parallelism", parallelism,
	)
}

// LogExecutorStart logs the start of dispatch
func (l *Logger) LogExecutorStart(taskCount int, workers int) {
	l.Info("executor started",
		"task_count", taskCount,
		"workers", workers,
	)
}

// LogExecutorComplete logs the completion of dispatch
func (l *Logger) LogExecutorComplete(s stats.Summary) {
	l.Info("executor completed",
		"task_count", s.Total,
		"success_count", s.Succeeded,
		"failure_count", s.Failed,
		"interrupted_count", s.Interrupted,
		"exit_code", s.ExitCode,
		"total_duration_ms", s.Duration.Milliseconds(),
	)
}

// LogTaskStart logs that a worker picked up a task
func (l *Logger) LogTaskStart(label string, setupCount int) {
	l.Debug("task started",
		"label", label,
		"setup_count", setupCount,
	)
}

// LogTaskComplete logs a task's exit code
func (l *Logger) LogTaskComplete(label string, exitCode int, duration time.Duration) {
	l.Info("task completed",
		"label", label,
		"exit_code", exitCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// LogSetupCommand logs a setup command before it runs
func (l *Logger) LogSetupCommand(label string, command string) {
	l.Debug("setup command",
		"label", label,
		"command", command,
	)
}

// LogTaskError logs a task that failed before producing an exit code
func (l *Logger) LogTaskError(label string, err error) {
	l.Error("task failed",
		"label", label,
		"error", err.Error(),
	)
}

// NewLoggerFromConfig creates a logger from application configuration
func NewLoggerFromConfig(logLevel, logFormat string, output io.Writer) *Logger {
	var level LogLevel
	switch logLevel {
	case "debug":
		level = LevelDebug
	case "info":
		level = LevelInfo
	default:
		level = LevelError
	}

	format := FormatText
	if logFormat == "json" {
		format = FormatJSON
	}

	return NewLogger(Config{
		Level:  level,
		Format: format,
		Output: output,
	})
}
