package logging

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrAlreadyInitialized is returned when the process-wide logger is set up twice.
var ErrAlreadyInitialized = errors.New("logger already initialized")

var (
	initMu sync.Mutex
	global atomic.Pointer[ColoredLogger]
)

// Init installs the process-wide logger at the given verbosity and redirects
// zap's global loggers to it. It succeeds exactly once per process.
func Init(level string) (*ColoredLogger, error) {
	initMu.Lock()
	defer initMu.Unlock()

	if global.Load() != nil {
		return nil, ErrAlreadyInitialized
	}

	logger, err := NewColoredLogger(level, true)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger.Logger)
	global.Store(logger)
	return logger, nil
}

// L returns the process-wide logger, or a no-op logger before Init.
func L() *ColoredLogger {
	if l := global.Load(); l != nil {
		return l
	}
	return NewNopLogger()
}

// reset clears the process-wide logger. Tests only.
func reset() {
	initMu.Lock()
	defer initMu.Unlock()
	global.Store(nil)
}
