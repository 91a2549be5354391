package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tessro/mfe/internal/console"
)

// shutdownTimeout bounds in-flight requests on shutdown.
const shutdownTimeout = 5 * time.Second

// serveBuiltin serves dir over HTTP in-process until ctx is cancelled.
func (s *Server) serveBuiltin(ctx context.Context, dir string, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		s.log.Errorf(labelError, "Cannot listen on port %d: %v", port, err)
		return fmt.Errorf("listen: %w", err)
	}
	return s.serve(ctx, ln, dir)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, dir string) error {
	srv := &http.Server{
		Handler:           s.logRequests(Handler(dir)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Logf(labelPreview, console.Green, "Serving %s on %s", dir, ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info(console.Yellow, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("preview request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Handler serves dir like `serve -s`: existing files are served as-is and
// any other path without a file extension falls back to the nearest
// index.html, so client-side routes (/editor/projects/1) resolve to their
// app. Mounted apps get their own index.html.
func Handler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil {
			files.ServeHTTP(w, r)
			return
		}
		if path.Ext(clean) != "" {
			http.NotFound(w, r)
			return
		}
		index := spaIndex(dir, clean)
		if index == "" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}

// spaIndex returns the index.html of the deepest existing directory on
// urlPath, or "" if none has one.
func spaIndex(dir, urlPath string) string {
	for p := urlPath; ; p = path.Dir(p) {
		candidate := filepath.Join(dir, filepath.FromSlash(p), "index.html")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		if p == "/" {
			return ""
		}
	}
}
