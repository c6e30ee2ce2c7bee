package mjson

import (
	"context"
	"log/slog"
)

// ParseOption configures a call to Parse or ParseString.
type ParseOption func(*parseConfig)

type parseConfig struct {
	logger *slog.Logger
}

// WithLogger routes TOK's diagnostic logging to logger. Passing nil (the
// default) disables diagnostic logging entirely: logTrace/logReject below
// are nil-safe and return before calling into slog. The arguments of each
// logging call are still built at the call site.
func WithLogger(logger *slog.Logger) ParseOption {
	return func(c *parseConfig) { c.logger = logger }
}

// logTrace and logReject are nil-safe, level-gated wrappers around
// *slog.Logger: check Enabled before touching the logger, so a disabled or
// absent logger never builds or handles a record. The variadic arguments are
// still evaluated and boxed at the call site, before that check. This
// mirrors the Enabled-then-log idiom the rest of this dependency family uses
// around slog (see simon-lentz-yammm's internal/trace package) rather than
// a hand-rolled logging interface.
//
// logTrace carries per-grammar-production detail (one call per production
// entered, plus one at the start of a parse);
// logReject marks a rejected parse or a clamped emitter push.
func logTrace(logger *slog.Logger, msg string, args ...any) {
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug(msg, args...)
}

func logReject(logger *slog.Logger, msg string, args ...any) {
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelWarn) {
		return
	}
	logger.Warn(msg, args...)
}
