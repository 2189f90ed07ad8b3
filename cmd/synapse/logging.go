package main

import (
	"fmt"
	"log/slog"
	"os"
)

// newLogger builds the process-wide structured logger, following the same
// "single text handler to stderr, level driven by a flag" idiom used
// throughout the retrieved agent CLIs.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// debugfFor adapts a *slog.Logger into the sandbox package's Debugf hook.
func debugfFor(log *slog.Logger) func(string, ...any) {
	return func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}
}
