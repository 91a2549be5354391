package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/tessro/mfe/internal/console"
	"github.com/tessro/mfe/internal/logging"
)

// maxLineSize bounds a single emitted line. Bundlers occasionally print very
// long lines (minified stack traces); longer lines are split.
const maxLineSize = 1024 * 1024

const readBufferSize = 64 * 1024

// Handle is a running child process owned by an orchestrator.
type Handle interface {
	Label() string
	Pid() int
	// Done is closed once the process has exited and its output is drained.
	Done() <-chan struct{}
	// ExitCode is valid after Done is closed; -1 if killed by a signal.
	ExitCode() int
	// Terminate requests graceful termination (SIGTERM to the process group).
	Terminate() error
	// AwaitExit waits up to timeout for exit, then kills the process group
	// and waits for it to be reaped.
	AwaitExit(timeout time.Duration) error
}

// Process is a spawned command with piped, line-scanned output.
type Process struct {
	label string
	cmd   *exec.Cmd
	log   *console.Logger

	done     chan struct{}
	exitCode int
	waitErr  error
}

var _ Handle = (*Process)(nil)

// Spawn starts c in its own process group with stdout and stderr piped.
// Each non-blank line is re-emitted through the console logger: stdout in
// c.Color, stderr in the error color. When the process closes, an
// informational exit line is logged. Spawn does not wait for the process,
// and leaves reporting a failed start to the caller.
//
// ctx only bounds the start; use Terminate/AwaitExit to stop the process.
func (r *Runner) Spawn(ctx context.Context, c Command) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.log.Logf(c.Label, c.Color, "Starting in %s", c.Dir)

	cmd, err := c.build(nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Label, err)
	}
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: stdout pipe: %w", c.Label, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, fmt.Errorf("%s: stderr pipe: %w", c.Label, err)
	}

	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("%s: start: %w", c.Label, err)
	}
	slog.Info("process spawned", "label", c.Label, "pid", cmd.Process.Pid, "cmd", c.String(), "dir", c.Dir)

	p := &Process{
		label: c.Label,
		cmd:   cmd,
		log:   r.log,
		done:  make(chan struct{}),
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go p.scan(&readers, stdout, c.Color, c.OnLine)
	go p.scan(&readers, stderr, console.ErrorColor, c.OnLine)
	go p.wait(&readers, c.Color)

	return p, nil
}

// scan re-emits each non-blank line of r. A line longer than maxLineSize
// is emitted in maxLineSize pieces; reading always continues to EOF.
func (p *Process) scan(wg *sync.WaitGroup, r io.Reader, color console.Color, onLine func(string)) {
	defer wg.Done()
	defer logging.LogPanic(p.label + "-reader")

	br := bufio.NewReaderSize(r, readBufferSize)
	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		line = append(line, chunk...)
		if len(line) > 0 && (!isPrefix || len(line) >= maxLineSize || err != nil) {
			p.emit(string(line), color, onLine)
			line = line[:0]
		}
		if err != nil {
			if err != io.EOF {
				slog.Debug("output reader stopped", "label", p.label, "error", err)
			}
			return
		}
	}
}

func (p *Process) emit(line string, color console.Color, onLine func(string)) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	p.log.Log(p.label, color, line)
	if onLine != nil {
		onLine(line)
	}
}

// wait reaps the process once both pipes are drained.
func (p *Process) wait(readers *sync.WaitGroup, color console.Color) {
	defer close(p.done)

	readers.Wait()
	p.waitErr = p.cmd.Wait()
	p.exitCode = -1
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}

	slog.Info("process exited", "label", p.label, "pid", p.cmd.Process.Pid, "code", p.exitCode, "error", p.waitErr)
	p.log.Logf(p.label, color, "Process exited with code %d", p.exitCode)
}

// Label returns the console label.
func (p *Process) Label() string {
	return p.label
}

// Pid returns the OS process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code. Only valid after Done is closed.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
		return p.exitCode
	default:
		return -1
	}
}

// Wait blocks until the process exits and returns its wait error.
func (p *Process) Wait() error {
	<-p.done
	return p.waitErr
}

// Terminate sends SIGTERM to the process group. Terminating an exited
// process is a no-op.
func (p *Process) Terminate() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := terminate(p.cmd.Process); err != nil && !isGone(err) {
		return fmt.Errorf("%s: terminate: %w", p.label, err)
	}
	return nil
}

// AwaitExit waits up to timeout for the process to exit after Terminate.
// If it does not, the process group is killed.
func (p *Process) AwaitExit(timeout time.Duration) error {
	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
	}

	slog.Warn("process did not exit gracefully, sending SIGKILL", "label", p.label, "timeout", timeout)
	p.log.Logf(p.label, console.Yellow, "Did not stop within %s, killing", timeout)
	if err := kill(p.cmd.Process); err != nil && !isGone(err) {
		return fmt.Errorf("%s: kill: %w", p.label, err)
	}
	<-p.done
	return nil
}

// Stop terminates the process and waits for it, escalating to a kill after
// timeout.
func (p *Process) Stop(timeout time.Duration) error {
	if err := p.Terminate(); err != nil {
		return err
	}
	return p.AwaitExit(timeout)
}
