// Package readiness decides when a spawned dev server is ready, so the
// next server can start after it instead of after a guessed delay.
package readiness

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tessro/mfe/internal/config"
)

// DefaultInterval is the polling interval for Port and the File fallback.
const DefaultInterval = 100 * time.Millisecond

// Probe blocks until its target is ready or ctx is done.
type Probe interface {
	Wait(ctx context.Context) error
	String() string
}

// LineObserver is implemented by probes fed from process output.
type LineObserver interface {
	Observe(line string)
}

// New builds the probe selected by cfg for a dev server listening on port.
func New(cfg *config.Config, port int) (Probe, error) {
	r := cfg.Dev.Readiness
	switch r.Kind {
	case config.ProbeDelay:
		d := r.Delay.Duration
		if d <= 0 {
			d = config.DefaultWarmUp
		}
		return Delay{Duration: d}, nil
	case config.ProbePort, "":
		host := r.Host
		if host == "" {
			host = "localhost"
		}
		return Port{Addr: net.JoinHostPort(host, strconv.Itoa(port))}, nil
	case config.ProbeLog:
		return NewLogLine(r.Pattern), nil
	case config.ProbeFile:
		return File{Path: cfg.Resolve(r.File)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProbe, r.Kind)
	}
}

// Delay waits a fixed duration.
type Delay struct {
	Duration time.Duration
}

func (d Delay) Wait(ctx context.Context) error {
	t := time.NewTimer(d.Duration)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d Delay) String() string {
	return "delay " + d.Duration.String()
}

// Port waits until a TCP connection to Addr succeeds.
type Port struct {
	Addr     string
	Interval time.Duration
}

func (p Port) Wait(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", p.Addr)
		if err == nil {
			conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (p Port) String() string {
	return "port " + p.Addr
}

// LogLine waits until an observed output line contains a pattern.
type LogLine struct {
	pattern string
	once    sync.Once
	ready   chan struct{}
}

// NewLogLine creates a LogLine probe for pattern.
func NewLogLine(pattern string) *LogLine {
	return &LogLine{pattern: pattern, ready: make(chan struct{})}
}

// Observe checks one line of output. Safe for concurrent use.
func (l *LogLine) Observe(line string) {
	if strings.Contains(line, l.pattern) {
		l.once.Do(func() { close(l.ready) })
	}
}

func (l *LogLine) Wait(ctx context.Context) error {
	select {
	case <-l.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *LogLine) String() string {
	return fmt.Sprintf("log line %q", l.pattern)
}

// File waits until Path exists.
type File struct {
	Path     string
	Interval time.Duration
}

func (f File) Wait(ctx context.Context) error {
	if exists(f.Path) {
		return nil
	}

	interval := f.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Debug("fsnotify unavailable, polling", "path", f.Path, "error", err)
		return f.poll(ctx, interval)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(f.Path)); err != nil {
		slog.Debug("cannot watch parent, polling", "path", f.Path, "error", err)
		return f.poll(ctx, interval)
	}
	// The file may have appeared before the watch was in place.
	if exists(f.Path) {
		return nil
	}

	target := filepath.Clean(f.Path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return f.poll(ctx, interval)
			}
			if filepath.Clean(ev.Name) == target && exists(f.Path) {
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return f.poll(ctx, interval)
			}
			slog.Debug("fsnotify error", "path", f.Path, "error", err)
		}
	}
}

func (f File) poll(ctx context.Context, interval time.Duration) error {
	for {
		if exists(f.Path) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (f File) String() string {
	return "file " + f.Path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
