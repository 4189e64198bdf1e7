// Package log wraps github.com/go-kit/log so every package logs the same way.
//
// Logs are logfmt-encoded and always carry:
//
//   - "ts": timestamp
//   - "level": one of debug, info, warn, error
//   - "msg": the main log message
//   - "error": (Error-level logs only) the error that caused the log
package log

import (
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

type Logger log.Logger

// New returns a logfmt Logger writing to w that drops everything below lvl.
// lvl may be one of debug, info, warn, error (case-insensitive); anything else
// falls back to warn.
func New(w io.Writer, lvl string) Logger {
	return log.With(
		level.NewFilter(
			log.NewLogfmtLogger(log.NewSyncWriter(w)),
			level.Allow(level.ParseDefault(lvl, level.WarnValue())),
		),
		"ts", log.DefaultTimestamp,
	)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return log.NewNopLogger()
}

// With is a wrapper for log.With()
func With(logger Logger, keyvals ...interface{}) Logger {
	return log.With(logger, keyvals...)
}

// Debug logs a message and any keyvals with DEBUG level
func Debug(l Logger, msg interface{}, kv ...interface{}) {
	logWithMessage(level.Debug(l), msg, kv...)
}

// Info logs a message and any keyvals with INFO level
func Info(l Logger, msg interface{}, kv ...interface{}) {
	logWithMessage(level.Info(l), msg, kv...)
}

// Warn logs a message and any keyvals with WARN level
func Warn(l Logger, msg interface{}, kv ...interface{}) {
	logWithMessage(level.Warn(l), msg, kv...)
}

// Error logs a message, error and any keyvals with ERROR level
func Error(l Logger, msg interface{}, err error, kv ...interface{}) {
	logWithMessage(level.Error(log.With(l, "error", err)), msg, kv...)
}

// Errorf is like Error() but also returns a new error that wraps err with msg.
// kvs are logged but not included in the returned error.
func Errorf(l Logger, msg interface{}, err error, kv ...interface{}) error {
	Error(l, msg, err, kv...)
	return fmt.Errorf("%s: %w", msg, err)
}

func logWithMessage(l Logger, msg interface{}, kv ...interface{}) {
	log.With(l, "msg", msg).Log(kv...)
}
