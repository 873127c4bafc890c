package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iklein99/swing-trading-agent-sub001/pkg/config"
)

// Logger is a structured logger wrapper around zerolog. All logging goes
// through this package.
type Logger struct {
	zlog zerolog.Logger
}

// New creates a Logger from config. Console output is human-readable;
// anything else logs JSON.
func New(cfg *config.Config) *Logger {
	var output io.Writer = os.Stdout
	if cfg.LogFormat == "console" || cfg.LogFormat == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.LogLevel))

	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("env", cfg.Env).
		Logger()

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func parseLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}

// WithField returns a child logger with one extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger with multiple extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a child logger carrying an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }

// Info logs an info message.
func (l *Logger) Info(msg string) { l.zlog.Info().Msg(msg) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string) { l.zlog.Warn().Msg(msg) }

// Error logs an error message.
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Zerolog exposes the underlying zerolog.Logger for packages that need
// event chaining.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}
