// Package logger provides process-wide logging for the extractor.
//
// Messages are printf-style. Debug output is suppressed unless verbose mode
// is enabled with SetVerbose.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugared = newLogger(zapcore.Lock(os.Stderr))
)

func newLogger(out zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, level)
	return zap.New(core).Sugar()
}

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	if v {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.InfoLevel)
}

// IsVerbose reports whether debug output is enabled.
func IsVerbose() bool {
	return level.Enabled(zapcore.DebugLevel)
}

// SetOutput redirects log output. Used by tests.
func SetOutput(out zapcore.WriteSyncer) {
	mu.Lock()
	defer mu.Unlock()
	sugared = newLogger(out)
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugared
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	get().Debugf(format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	get().Infof(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	get().Warnf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	get().Errorf(format, args...)
}

// Errorw logs an error with structured context.
func Errorw(msg string, keysAndValues ...any) {
	get().Errorw(msg, keysAndValues...)
}

// Sync flushes buffered output.
func Sync() {
	//nolint:errcheck // stderr sync errors are not actionable
	get().Sync()
}
