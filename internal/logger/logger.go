// Package logger provides the process-wide structured logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

// Accepted values for the log.level config key.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	global *Logger
	once   sync.Once
)

// Get returns the process logger. The level of the first call wins.
func Get(level string) *Logger {
	once.Do(func() {
		global = newZapLogger(level)
	})
	return global
}

// Nop returns a logger that discards everything. Useful in tests and tools.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
