// Package runner executes the external build and dev-server commands mfe
// orchestrates.
//
// Run executes a command to completion with the parent's stdio attached.
// Spawn starts a long-running command whose output is re-emitted line by
// line through the console logger.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tessro/mfe/internal/console"
)

// ErrEmptyCommand is returned for a Command without an executable.
var ErrEmptyCommand = errors.New("empty command")

// runWaitDelay bounds how long Run waits for output pipes after a
// cancelled command is killed; grandchildren may still hold them open.
const runWaitDelay = 2 * time.Second

// Command describes one external command.
type Command struct {
	Label string        // Console label (e.g., "HOST")
	Color console.Color // Label color for stdout lines
	Dir   string        // Working directory
	Args  []string      // argv; Args[0] is looked up in PATH
	Env   []string      // Added to the inherited environment

	// OnLine, if set, is called with every output line of a spawned
	// command, from the reader goroutines.
	OnLine func(line string)
}

// String returns the command line as typed.
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

func (c Command) build(ctx context.Context) (*exec.Cmd, error) {
	if len(c.Args) == 0 || c.Args[0] == "" {
		return nil, ErrEmptyCommand
	}
	var cmd *exec.Cmd
	if ctx != nil {
		cmd = exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	} else {
		cmd = exec.Command(c.Args[0], c.Args[1:]...)
	}
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd, nil
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Label string
	Code  int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Label, e.Code)
}

// Runner runs commands and reports through a console logger.
type Runner struct {
	log *console.Logger

	// Stdout and Stderr receive the output of Run. Default: os.Stdout and
	// os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a Runner logging to log.
func New(log *console.Logger) *Runner {
	return &Runner{
		log:    log,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes c and waits for it, streaming its output straight to the
// runner's stdout/stderr. Failures are logged with c's label and returned;
// Run never panics on a bad command.
func (r *Runner) Run(ctx context.Context, c Command) error {
	r.log.Logf(c.Label, console.Cyan, "Running: %s", c)

	cmd, err := c.build(ctx)
	if err != nil {
		r.log.Errorf(c.Label, "Failed: %v", err)
		return fmt.Errorf("%s: %w", c.Label, err)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.WaitDelay = runWaitDelay

	start := time.Now()
	err = cmd.Run()
	slog.Debug("command finished", "label", c.Label, "cmd", c.String(), "dir", c.Dir,
		"duration", time.Since(start), "error", err)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = &ExitError{Label: c.Label, Code: exitErr.ExitCode()}
	} else {
		err = fmt.Errorf("%s: %w", c.Label, err)
	}
	r.log.Errorf(c.Label, "Failed: %v", err)
	return err
}

// SpawnFunc starts a long-running command. Orchestrators depend on this
// rather than on *Runner so they can be tested without real processes.
type SpawnFunc func(ctx context.Context, c Command) (Handle, error)

// Spawner returns r.Spawn as a SpawnFunc.
func (r *Runner) Spawner() SpawnFunc {
	return func(ctx context.Context, c Command) (Handle, error) {
		p, err := r.Spawn(ctx, c)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
