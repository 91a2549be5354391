// Package devserver runs the secondary and primary dev servers side by side
// until the parent is interrupted.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tessro/mfe/internal/config"
	"github.com/tessro/mfe/internal/console"
	"github.com/tessro/mfe/internal/project"
	"github.com/tessro/mfe/internal/readiness"
	"github.com/tessro/mfe/internal/runner"
)

// ErrPrimaryMissing is returned when the primary project directory is absent.
var ErrPrimaryMissing = errors.New("primary project not found")

const (
	labelInfo  = "INFO"
	labelError = "ERROR"
)

// Orchestrator owns the dev server processes it spawns.
type Orchestrator struct {
	cfg   *config.Config
	log   *console.Logger
	spawn runner.SpawnFunc
	group runner.Group

	// newProbe builds the readiness probe for the secondary dev server.
	newProbe func(cfg *config.Config, port int) (readiness.Probe, error)
}

// New creates an Orchestrator that starts processes with spawn.
func New(cfg *config.Config, log *console.Logger, spawn runner.SpawnFunc) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		log:      log,
		spawn:    spawn,
		newProbe: readiness.New,
	}
}

// Run starts the dev servers and blocks until ctx is cancelled, then stops
// every child (SIGTERM, then SIGKILL after the stop timeout) and returns nil.
// Children that exit on their own are only logged; they are not restarted.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Banner("Aziende micro-frontends dev server", console.Cyan)

	primary, secondary := project.Resolve(o.cfg)
	presence := project.Check(primary, secondary)

	if !presence.Primary {
		o.log.Errorf(labelError, "%s project (%s) not found!", primary.Label, filepath.Base(primary.Path))
		return fmt.Errorf("%w: %s", ErrPrimaryMissing, primary.Path)
	}

	env, err := o.loadEnv()
	if err != nil {
		o.log.Errorf(labelError, "Cannot read env file: %v", err)
		return err
	}

	if presence.Secondary {
		o.log.Infof(console.Green, "%s project found - starting remote...", capitalize(secondary.Name))
		o.log.Infof(console.Yellow, "%s will be available at: http://localhost:%d", capitalize(secondary.Name), secondary.Port)
		o.startSecondary(ctx, secondary, env)
	} else {
		o.log.Infof(console.Yellow, "%s project not found - running %s only", capitalize(secondary.Name), primary.Name)
		o.log.Infof(console.Yellow, "To enable the /%s route, clone %s", secondary.Mount, filepath.Base(secondary.Path))
	}

	if ctx.Err() != nil {
		return o.shutdown()
	}

	o.log.Infof(console.Green, "Starting %s application...", primary.Name)
	o.log.Infof(console.Yellow, "%s will be available at: http://localhost:%d", capitalize(primary.Name), primary.Port)
	h, err := o.spawn(ctx, primary.DevCommand(env))
	if err != nil {
		o.log.Errorf(labelError, "Cannot start %s: %v", primary.Name, err)
		if stopErr := o.shutdown(); stopErr != nil {
			slog.Warn("shutdown after failed start", "error", stopErr)
		}
		return fmt.Errorf("start %s: %w", primary.Name, err)
	}
	o.group.Add(h)

	o.printURLs(primary, secondary, presence.Secondary)

	<-ctx.Done()
	return o.shutdown()
}

// startSecondary spawns the secondary dev server and waits for it to become
// ready. Failures are logged; the primary starts regardless.
func (o *Orchestrator) startSecondary(ctx context.Context, secondary *project.Project, env []string) {
	probe, err := o.newProbe(o.cfg, secondary.Port)
	if err != nil {
		o.log.Errorf(labelError, "Bad readiness probe: %v", err)
		probe = readiness.Delay{Duration: config.DefaultWarmUp}
	}

	cmd := secondary.DevCommand(env)
	if obs, ok := probe.(readiness.LineObserver); ok {
		cmd.OnLine = obs.Observe
	}

	h, err := o.spawn(ctx, cmd)
	if err != nil {
		o.log.Errorf(secondary.Label, "Error: %v", err)
		return
	}
	o.group.Add(h)

	waitCtx, cancel := context.WithTimeout(ctx, o.cfg.ReadyTimeout())
	defer cancel()
	go func() {
		select {
		case <-h.Done():
			cancel()
		case <-waitCtx.Done():
		}
	}()

	start := time.Now()
	err = probe.Wait(waitCtx)
	switch {
	case err == nil:
		slog.Info("secondary ready", "probe", probe.String(), "after", time.Since(start))
	case ctx.Err() != nil:
		// Interrupted while waiting; Run shuts down.
	case isDone(h):
		o.log.Errorf(secondary.Label, "Exited before becoming ready (%s)", probe)
	default:
		o.log.Logf(secondary.Label, console.Yellow, "Not ready after %s (%s), starting anyway", o.cfg.ReadyTimeout(), probe)
	}
}

func (o *Orchestrator) printURLs(primary, secondary *project.Project, withSecondary bool) {
	o.log.Blank()
	o.log.Info(console.Green, "Development servers starting...")
	o.log.Blank()
	o.log.Info(console.Cyan, "===========================================")
	o.log.Infof(console.Green, "  App available at:   http://localhost:%d", primary.Port)
	if withSecondary {
		for _, route := range secondary.Routes {
			o.log.Infof(console.Green, "  %-18s  http://localhost:%d/%s/", capitalize(route)+":", primary.Port, route)
		}
	}
	o.log.Info(console.Cyan, "===========================================")
	if withSecondary {
		o.log.Infof(console.Yellow, "  (internal %s server on port %d)", secondary.Name, secondary.Port)
	}
	o.log.Blank()
	o.log.Info(console.Yellow, "Press Ctrl+C to stop all servers")
	o.log.Blank()
}

// shutdown stops every child and waits for them.
func (o *Orchestrator) shutdown() error {
	o.log.Info(console.Yellow, "Shutting down...")
	if err := o.group.StopAll(o.cfg.StopTimeout()); err != nil {
		slog.Warn("stopping dev servers", "error", err)
		o.log.Errorf(labelError, "Some processes did not stop cleanly: %v", err)
	}
	return nil
}

// loadEnv reads the configured dotenv file into KEY=VALUE pairs.
func (o *Orchestrator) loadEnv() ([]string, error) {
	if o.cfg.Dev.EnvFile == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(o.cfg.Resolve(o.cfg.Dev.EnvFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", o.cfg.Dev.EnvFile, err)
	}
	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env, nil
}

func isDone(h runner.Handle) bool {
	select {
	case <-h.Done():
		return true
	default:
		return false
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
