package schemaforge

import (
	"context"
	"log/slog"
	"os"
)

// Structured logging uses log/slog rather than a third-party logger. None of the libraries this
// module otherwise depends on cover logging, and the rest of the retrieved corpus's loggers
// (charm.land/log, go-logr/logr) each drag in a CLI/controller-runtime stack this module has no
// other reason to depend on. slog is the stdlib answer the standard library itself settled on for
// this, so it is used here unmodified rather than reimplemented. Compile attaches a uuid-based
// trace ID (see pipeline.go) so a caller's logs for one compile can be grepped out of the stream.

var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

type logCtxKey struct{}

// WithLogger returns a context carrying logger for pipeline stages to log against via LoggerFromContext.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey{}, logger)
}

// LoggerFromContext returns the logger attached to ctx, or a package-level default that logs
// warnings and above to stderr.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(logCtxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

func logPassApplied(ctx context.Context, pass string, path string, detail string) {
	LoggerFromContext(ctx).Debug("pass applied", "pass", pass, "path", path, "detail", detail)
}

func logDropped(ctx context.Context, d DroppedConstraint) {
	LoggerFromContext(ctx).Info("constraint dropped", "path", d.Path, "keyword", d.Keyword, "reason", d.Reason)
}

func logRehydrationWarning(ctx context.Context, path, message string) {
	LoggerFromContext(ctx).Warn("rehydration warning", "path", path, "message", message)
}
