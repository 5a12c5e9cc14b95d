package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultPreviewPort is the first port tried by the preview server.
const DefaultPreviewPort = 9000

// Port range scanned when the default is taken.
const (
	PreviewPortRangeStart = 9000
	PreviewPortRangeEnd   = 9100
)

// PreviewServer serves a rendered bundle from memory.
type PreviewServer struct {
	bundle *Bundle
	port   int
	server *http.Server
	logger *zap.Logger
}

// NewPreviewServer creates a preview server for the bundle on port
func NewPreviewServer(bundle *Bundle, port int, logger *zap.Logger) *PreviewServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewServer{bundle: bundle, port: port, logger: logger}
}

// Handler returns the HTTP handler serving the bundle
func (p *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/__preview__/status", p.statusHandler)
	mux.Handle("/", noCacheMiddleware(http.HandlerFunc(p.fileHandler)))
	return mux
}

func (p *PreviewServer) fileHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" {
		name = FormatHTML.FileName()
	}
	data, ok := p.bundle.File(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if f, err := ParseFormat(path.Ext(name)); err == nil {
		w.Header().Set("Content-Type", f.ContentType())
	}
	w.Write(data)
}

// Serve runs the server until ctx is done, then shuts it down gracefully.
func (p *PreviewServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p.port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", p.port, err)
	}
	p.server = &http.Server{Handler: p.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		if err := p.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()
	p.logger.Info("preview server running", zap.String("url", p.URL()), zap.Strings("files", p.bundle.Names()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return p.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Port returns the port the server is running on.
func (p *PreviewServer) Port() int {
	return p.port
}

// URL returns the full URL of the preview server.
func (p *PreviewServer) URL() string {
	return fmt.Sprintf("http://localhost:%d", p.port)
}

func (p *PreviewServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "running",
		"port":   p.port,
		"files":  p.bundle.Names(),
	})
}

// noCacheMiddleware adds headers to prevent browser caching.
func noCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FindAvailablePort finds an available port in the given range.
func FindAvailablePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, end)
}
