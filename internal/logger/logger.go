// Package logger provides the process-wide diagnostic logger. Recoverable
// pipeline failures are logged here rather than propagated; user-facing
// summary output stays in the CLI layer.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

var std = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
})

// SetVerbose lowers the log level to debug.
func SetVerbose(verbose bool) {
	if verbose {
		std.SetLevel(log.DebugLevel)
	} else {
		std.SetLevel(log.InfoLevel)
	}
}

// Debug logs a message at debug level.
func Debug(msg string, keyvals ...any) { std.Debug(msg, keyvals...) }

// Info logs a message at info level.
func Info(msg string, keyvals ...any) { std.Info(msg, keyvals...) }

// Warn logs a message at warn level.
func Warn(msg string, keyvals ...any) { std.Warn(msg, keyvals...) }

// Error logs a message at error level.
func Error(msg string, keyvals ...any) { std.Error(msg, keyvals...) }
