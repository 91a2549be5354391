package readiness

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tessro/mfe/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ReadinessConfig)
		want   string
	}{
		{"default is port", func(*config.ReadinessConfig) {}, "port localhost:5021"},
		{"custom host", func(r *config.ReadinessConfig) { r.Host = "127.0.0.1" }, "port 127.0.0.1:5021"},
		{"delay", func(r *config.ReadinessConfig) { r.Kind = config.ProbeDelay }, "delay 3s"},
		{"log", func(r *config.ReadinessConfig) {
			r.Kind = config.ProbeLog
			r.Pattern = "ready in"
		}, `log line "ready in"`},
		{"file", func(r *config.ReadinessConfig) {
			r.Kind = config.ProbeFile
			r.File = ".editor-ready"
		}, "file " + filepath.Join("/work", ".editor-ready")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default("/work")
			tt.mutate(&cfg.Dev.Readiness)

			p, err := New(cfg, 5021)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.String() != tt.want {
				t.Errorf("New() = %q, want %q", p.String(), tt.want)
			}
		})
	}
}

func TestNewUnknownKind(t *testing.T) {
	cfg := config.Default("/work")
	cfg.Dev.Readiness.Kind = "telepathy"

	if _, err := New(cfg, 5021); !errors.Is(err, config.ErrUnknownProbe) {
		t.Errorf("New() error = %v, want ErrUnknownProbe", err)
	}
}

func TestDelay(t *testing.T) {
	start := time.Now()
	if err := (Delay{Duration: 50 * time.Millisecond}).Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("Wait() returned before the delay")
	}
}

func TestDelayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := (Delay{Duration: time.Hour}).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestPortReadyWhenListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	// Bind the port shortly after the probe starts polling. The kernel
	// completes the handshake from the backlog, so no Accept is needed.
	bound := make(chan net.Listener, 1)
	go func() {
		time.Sleep(150 * time.Millisecond)
		l, err := net.Listen("tcp", addr)
		if err != nil {
			bound <- nil
			return
		}
		bound <- l
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = (Port{Addr: addr, Interval: 20 * time.Millisecond}).Wait(ctx)
	l := <-bound
	if l == nil {
		t.Skip("could not rebind test port")
	}
	defer l.Close()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestPortTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := (Port{Addr: addr, Interval: 20 * time.Millisecond}).Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestLogLine(t *testing.T) {
	p := NewLogLine("ready in")

	var _ LineObserver = p
	p.Observe("VITE v5.0.0 starting")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() before match = %v, want DeadlineExceeded", err)
	}

	p.Observe("  VITE v5.0.0  ready in 312 ms")
	p.Observe("ready in again") // second match must not panic
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait() after match = %v", err)
	}
}

func TestFileAlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ready")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := (File{Path: path}).Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestFileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ready")

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(path, []byte("ok"), 0644)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := (File{Path: path}).Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestFileMissingParentPolls(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "later")
	path := filepath.Join(dir, "ready")

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.MkdirAll(dir, 0755)
		_ = os.WriteFile(path, nil, 0644)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := (File{Path: path, Interval: 20 * time.Millisecond}).Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestFileTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := (File{Path: path}).Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}
