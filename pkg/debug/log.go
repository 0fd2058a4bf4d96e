// Package debug switches on the debug output of the runtime packages.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/recera/pria/pkg/reactive"
	"github.com/recera/pria/pkg/scheduler"
)

// EnableLogging makes w the destination of debug-level slog output and
// routes the scheduler and reactive debug hooks through it.
func EnableLogging(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	logFn := func(args ...interface{}) {
		logger.Debug(Line(args...))
	}
	scheduler.SetDebugLog(logFn)
	reactive.SetDebugLog(logFn)
	return logger
}

// DisableLogging removes the hooks installed by EnableLogging
func DisableLogging() {
	scheduler.SetDebugLog(nil)
	reactive.SetDebugLog(nil)
}

// Line joins hook arguments the way fmt.Println does, without the newline
func Line(args ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}
