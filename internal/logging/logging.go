// Package logging configures the diagnostic slog logger for mfe.
//
// Human-facing output goes through the console package; this log captures
// structured detail (pids, exit codes, timings) for troubleshooting.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/tessro/mfe/internal/paths"
)

// ParseLevel converts a --log-level value to a slog.Level.
// Accepts debug, info, warn, and error in any case; anything else is info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	switch s := strings.ToLower(level); s {
	case "debug", "info", "warn", "error":
		if err := l.UnmarshalText([]byte(s)); err == nil {
			return l
		}
	}
	return slog.LevelInfo
}

// Setup points the default slog logger at a JSON file, appending.
// An empty path means paths.LogPath(). Every record carries the pid so runs
// can be told apart in the shared file. The returned func closes the file.
func Setup(path string, level slog.Level) (cleanup func(), err error) {
	if path == "" {
		path = paths.LogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger.With("pid", os.Getpid()))
	return func() { _ = f.Close() }, nil
}

// Discard drops all diagnostics.
func Discard() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetupTest sends debug-level text records to w.
func SetupTest(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// LogPanic records a recovered panic with its stack. Defer it first thing
// in goroutines that relay child output, so a bad line cannot take down
// the orchestrator:
//
//	defer logging.LogPanic("HOST-reader")
func LogPanic(name string) {
	if r := recover(); r != nil {
		slog.Error("panic recovered", "goroutine", name, "panic", r, "stack", string(debug.Stack()))
	}
}
