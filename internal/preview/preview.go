// Package preview serves a finished output tree, either by spawning the
// configured static file server or with the built-in one.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/tessro/mfe/internal/config"
	"github.com/tessro/mfe/internal/console"
	"github.com/tessro/mfe/internal/runner"
)

// ErrNoBuild is returned when the output tree does not exist.
var ErrNoBuild = errors.New("build not found")

const (
	labelPreview = "PREVIEW"
	labelError   = "ERROR"
)

// Server runs the preview.
type Server struct {
	cfg   *config.Config
	log   *console.Logger
	spawn runner.SpawnFunc
}

// New creates a preview Server that starts the static server with spawn.
func New(cfg *config.Config, log *console.Logger, spawn runner.SpawnFunc) *Server {
	return &Server{cfg: cfg, log: log, spawn: spawn}
}

// Run serves the output tree until ctx is cancelled. It refuses to start,
// spawning nothing, when the output tree is missing.
func (s *Server) Run(ctx context.Context) error {
	s.log.Banner("Aziende platform - preview server", console.Cyan)

	dir := s.cfg.OutputPath()
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.log.Error(labelError, "Build not found! Run 'mfe build' first.")
		return fmt.Errorf("%w: %s", ErrNoBuild, dir)
	}

	port := s.cfg.Preview.Port
	s.log.Info(console.Green, "Starting preview server...")
	s.log.Infof(console.Yellow, "Server will be available at: http://localhost:%d", port)
	s.log.Blank()

	if s.cfg.Preview.Builtin {
		return s.serveBuiltin(ctx, dir, port)
	}
	return s.serveExternal(ctx, dir, port)
}

// serveExternal runs the configured static server as a child process.
func (s *Server) serveExternal(ctx context.Context, dir string, port int) error {
	cmd := runner.Command{
		Label: labelPreview,
		Color: console.Green,
		Dir:   s.cfg.Root,
		Args:  Expand(s.cfg.Preview.Command, dir, port),
	}
	h, err := s.spawn(ctx, cmd)
	if err != nil {
		s.log.Errorf(labelError, "Error: %v", err)
		return fmt.Errorf("start preview server: %w", err)
	}

	select {
	case <-ctx.Done():
		s.log.Info(console.Yellow, "Shutting down...")
		if err := h.Terminate(); err != nil {
			slog.Warn("terminate preview server", "pid", h.Pid(), "error", err)
			s.log.Errorf(labelPreview, "Terminate failed: %v", err)
		}
		return h.AwaitExit(s.cfg.StopTimeout())
	case <-h.Done():
		if code := h.ExitCode(); code != 0 {
			return &runner.ExitError{Label: labelPreview, Code: code}
		}
		return nil
	}
}

// Expand substitutes {dir} and {port} in args.
func Expand(args []string, dir string, port int) []string {
	r := strings.NewReplacer("{dir}", dir, "{port}", strconv.Itoa(port))
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}
