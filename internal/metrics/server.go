package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/five82/addressable/internal/logging"
)

const defaultPath = "/metrics"

// Server serves the registry over HTTP.
type Server struct {
	httpServer *http.Server
	metrics    *Metrics
	addr       string
	logger     logging.Logger
}

// NewServer creates a metrics server listening on addr.
func NewServer(m *Metrics, addr string, logger logging.Logger) *Server {
	if addr == "" {
		addr = "127.0.0.1:9464"
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{metrics: m, addr: addr, logger: logger}
}

// Handler returns the mux with /metrics and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(defaultPath, promhttp.HandlerFor(
		s.metrics.Registry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// Start listens on the configured address and serves in the background.
// It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info(ctx, "starting metrics server", "addr", ln.Addr().String(), "path", defaultPath)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "metrics server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info(ctx, "shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}
