// backend/src/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// L is the global logger. It falls back to slog's default until InitLogger runs,
// so packages and tests can log before configuration is loaded.
var L = slog.Default()

const (
	FormatJSON = "json"
	FormatText = "text"

	serviceName = "optionledger"
)

type contextKey string

const loggerKey contextKey = "logger"

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values report false and yield Info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// New builds a logger writing to w in the given format (json unless "text").
// Timestamps are RFC3339 and every record carries the service name.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(format, FormatText) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With(slog.String("service", serviceName))
}

// InitLogger initializes the global logger on stdout.
// Call this once at application startup, after loading config.
func InitLogger(logLevelStr, format string) {
	level, ok := ParseLevel(logLevelStr)
	L = New(os.Stdout, level, format)
	slog.SetDefault(L)

	if !ok {
		L.Warn("Invalid LOG_LEVEL specified, defaulting to INFO", "configuredLevel", logLevelStr)
	}
	L.Info("Logger initialized", "level", level.String(), "format", format)
}

// FromContext retrieves a logger from context, or returns the global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return L
}

// ToContext embeds a slog.Logger into a context.Context.
func ToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// ForImport tags the contextual logger with the upload being imported.
func ForImport(ctx context.Context, source, filename string) *slog.Logger {
	return FromContext(ctx).With(slog.Group("import", slog.String("source", source), slog.String("filename", filename)))
}

// ForRebuild tags the contextual logger with a rebuild ID and stores it back in the context,
// so lines logged while folding sources can be tied to one rebuild.
func ForRebuild(ctx context.Context, rebuildID string) (context.Context, *slog.Logger) {
	l := FromContext(ctx).With(slog.String("rebuildID", rebuildID))
	return ToContext(ctx, l), l
}

// ForUpstream returns the global logger tagged with an upstream API client.
func ForUpstream(client string) *slog.Logger {
	return L.With(slog.String("client", client))
}
