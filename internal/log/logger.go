package log

import (
	"fmt"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

var logger = newLogger()

func newLogger() *charmlog.Logger {
	l := charmlog.NewWithOptions(sink, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006/01/02 15:04:05.000000",
		Level:           charmlog.DebugLevel,
	})
	l.SetFormatter(charmlog.LogfmtFormatter)
	return l
}

// ParseLevel maps a level name to a charm log level. Unknown names are
// reported as an error and map to debug.
func ParseLevel(name string) (charmlog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "debug":
		return charmlog.DebugLevel, nil
	case "info":
		return charmlog.InfoLevel, nil
	case "warn", "warning":
		return charmlog.WarnLevel, nil
	case "error":
		return charmlog.ErrorLevel, nil
	}
	return charmlog.DebugLevel, fmt.Errorf("unknown log level %q", name)
}

// SetLevel sets the minimum level written to the debug log.
func SetLevel(level charmlog.Level) {
	logger.SetLevel(level)
}

// With returns a logger carrying the given key/value pairs on every record.
func With(keyvals ...any) *charmlog.Logger {
	return logger.With(keyvals...)
}

// Debug logs a debug record with key/value pairs.
func Debug(msg string, keyvals ...any) {
	logger.Debug(msg, keyvals...)
}

// Info logs an info record with key/value pairs.
func Info(msg string, keyvals ...any) {
	logger.Info(msg, keyvals...)
}

// Warn logs a warning record with key/value pairs.
func Warn(msg string, keyvals ...any) {
	logger.Warn(msg, keyvals...)
}

// Error logs an error record with key/value pairs.
func Error(msg string, keyvals ...any) {
	logger.Error(msg, keyvals...)
}

// Printf writes a formatted debug record. It matches the func(string, ...any)
// shape that services take for their debug hooks.
func Printf(format string, args ...any) {
	logger.Debugf(format, args...)
}
