package logger

import (
	"os"
	"strings"
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output encodings.
const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger writing to stdout. The first call fixes level
// and format; later calls return the same instance.
func Get(level, format string) *Logger {
	once.Do(func() {
		globalLogger = New(level, format, os.Stdout)
	})
	return globalLogger
}

// normalizeLevel lowercases and trims a level or format coming from config or env.
func normalizeLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}
