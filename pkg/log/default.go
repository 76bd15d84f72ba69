package log

import (
	"os"
	"sync"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewZerologLogger(os.Stderr, LevelInfo)
)

// GetLogger returns the package default Logger.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the package default Logger. A nil logger installs Discard().
func SetLogger(l Logger) {
	if l == nil {
		l = Discard()
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// InstallWarnings routes errors.Warn through l at warn level.
func InstallWarnings(l Logger) {
	errors.SetZerologWarnFunc(func(w error) {
		l.Warn(w.Error(), "warning", w)
	})
}
