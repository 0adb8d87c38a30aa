// Package logging provides structured logging infrastructure for answerstream.
// It wraps Go's standard log/slog package with context-aware logging, correlation IDs,
// and stream-specific log attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// contextKey is used for storing logger-related values in context.
type contextKey string

const (
	// CorrelationIDKey is the context key for request correlation IDs.
	CorrelationIDKey contextKey = "correlation_id"
	// ModelKey is the context key for the requested model name.
	ModelKey contextKey = "model"
	// ProviderKey is the context key for provider names.
	ProviderKey contextKey = "provider"
	// ConnectionIDKey is the context key for the recipient connection.
	ConnectionIDKey contextKey = "connection_id"
)

// enrichKeys are copied from the context into every *Context log call, in order.
var enrichKeys = []contextKey{CorrelationIDKey, ModelKey, ProviderKey, ConnectionIDKey}

// Level represents log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// IsValid reports whether l is a known level.
func (l Level) IsValid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}

// Format represents log output formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// IsValid reports whether f is a known format.
func (f Format) IsValid() bool {
	return f == FormatJSON || f == FormatText
}

// Config holds logging configuration.
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     os.Stderr,
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps slog.Logger with context enrichment.
type Logger struct {
	slogger *slog.Logger
	level   *slog.LevelVar
}

// global is the package-level default logger.
var (
	global     *Logger
	globalOnce sync.Once
)

// Init initializes the global logger with the provided configuration.
func Init(cfg Config) *Logger {
	globalOnce.Do(func() {
		global = New(cfg)
	})
	return global
}

// Default returns the global logger, initializing it with defaults if necessary.
func Default() *Logger {
	if global == nil {
		Init(DefaultConfig())
	}
	return global
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(Config{Level: LevelError, Output: io.Discard})
}

// New creates a new Logger with the provided configuration.
func New(cfg Config) *Logger {
	level := &slog.LevelVar{}
	level.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		slogger: slog.New(handler),
		level:   level,
	}
}

// parseLevel converts a Level to slog.Level.
func parseLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the log level of l and every logger derived from it.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(parseLevel(level))
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slogger: l.slogger.With(args...), level: l.level}
}

// WithGroup returns a new Logger with the given group name.
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{slogger: l.slogger.WithGroup(name), level: l.level}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// DebugContext logs at debug level with context values.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// InfoContext logs at info level with context values.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// WarnContext logs at warn level with context values.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// ErrorContext logs at error level with context values.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// enrichArgs extracts context values and adds them as log attributes.
func (l *Logger) enrichArgs(ctx context.Context, args []any) []any {
	enriched := make([]any, 0, len(args)+2*len(enrichKeys))
	for _, key := range enrichKeys {
		if v := ctx.Value(key); v != nil {
			enriched = append(enriched, string(key), v)
		}
	}
	return append(enriched, args...)
}

// Underlying returns the underlying slog.Logger.
func (l *Logger) Underlying() *slog.Logger {
	return l.slogger
}

// --- Context helpers ---

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// WithModel adds a model name to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// WithProvider adds a provider name to the context.
func WithProvider(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ProviderKey, name)
}

// WithConnectionID adds a recipient connection ID to the context.
func WithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ConnectionIDKey, id)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	if s, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return s
	}
	return ""
}

// --- Stream logging helpers ---

// LogStreamStart logs the start of an answer stream.
func LogStreamStart(ctx context.Context, logger *Logger, model, modelID string) {
	logger.InfoContext(ctx, "answer stream started",
		"model_name", model,
		"model_id", modelID,
	)
}

// LogStreamComplete logs a stream that ended with an End envelope.
func LogStreamComplete(ctx context.Context, logger *Logger, tokens, envelopes int, duration time.Duration) {
	logger.InfoContext(ctx, "answer stream completed",
		"token_events", tokens,
		"envelopes", envelopes,
		"duration_ms", duration.Milliseconds(),
	)
}

// LogStreamFailed logs a stream that ended with an error.
func LogStreamFailed(ctx context.Context, logger *Logger, err error, duration time.Duration) {
	logger.ErrorContext(ctx, "answer stream failed",
		"error", err.Error(),
		"duration_ms", duration.Milliseconds(),
	)
}

// LogDeliveryFailed logs an envelope that could not be published.
func LogDeliveryFailed(ctx context.Context, logger *Logger, envelopeType string, err error) {
	logger.ErrorContext(ctx, "envelope delivery failed",
		"envelope_type", envelopeType,
		"error", err.Error(),
	)
}

// LogRelevance logs the relevance score attached to a finished answer.
func LogRelevance(ctx context.Context, logger *Logger, method string, score float64) {
	logger.DebugContext(ctx, "relevance scored",
		"method", method,
		"score", score,
	)
}
