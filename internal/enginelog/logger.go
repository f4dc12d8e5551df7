// Package enginelog provides the engine's structured logger, a
// no-op by default so embedding an engine.Runtime never writes to
// stderr unless the host opts in.
package enginelog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger instance. It uses a no-op
// logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger replaces the package logger, letting an embedder (e.g.
// the CLI) wire in a real zap.Logger for diagnostics.
func SetLogger(l *zap.Logger) {
	loggerOnce.Do(func() {})
	logger = l
}

// Sugar returns the logger's SugaredLogger, the form the rest of the
// engine uses for structured key-value fields.
func Sugar() *zap.SugaredLogger {
	return Logger().Sugar()
}
