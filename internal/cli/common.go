package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tessro/mfe/internal/config"
	"github.com/tessro/mfe/internal/console"
	"github.com/tessro/mfe/internal/paths"
)

// loadConfig resolves the root and loads its configuration.
func loadConfig() (*config.Config, error) {
	root, err := paths.Root()
	if err != nil {
		return nil, err
	}
	path, explicit := paths.ConfigPath(root)
	return config.Load(root, path, explicit)
}

var notifyContext = signal.NotifyContext

// signalContext returns a context cancelled on SIGINT or SIGTERM. Once it
// is done the handler is released, so a second Ctrl+C during shutdown
// exits immediately.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := notifyContext(parent, os.Interrupt, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}

func newConsole() *console.Logger {
	return console.Stdout()
}
