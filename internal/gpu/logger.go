//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/noxkit/sdf"
)

// loggerPtr holds a logger set explicitly with SetLogger. Accessed
// atomically for thread safety.
var loggerPtr atomic.Pointer[slog.Logger]

// slogger returns the current package logger.
// All logging in internal/gpu goes through this function. Without an
// explicit logger it follows sdf.Logger, so a later sdf.SetLogger reaches
// pipelines that already exist.
func slogger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return sdf.Logger()
}

// SetLogger overrides the package logger. Nil returns to following
// sdf.Logger.
func SetLogger(l *slog.Logger) {
	loggerPtr.Store(l)
}
