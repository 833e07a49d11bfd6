// Package server exposes catalog browsing and manifest-derived table
// statistics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"iceberg-lens/config"
	"iceberg-lens/iceberg"
	"iceberg-lens/stats"
)

type Catalog interface {
	ListNamespaces(ctx context.Context) ([][]string, error)
	ListTables(ctx context.Context, namespace string) ([]iceberg.TableIdentifier, error)
	LoadTable(ctx context.Context, namespace, table string) (*iceberg.LoadTableResponse, error)
}

// StatsProvider returns statistics for a manifest list, or false when none
// are available.
type StatsProvider interface {
	TableStats(ctx context.Context, manifestList string, props map[string]string) (stats.TableStats, bool)
}

type Server struct {
	catalog  Catalog
	stats    StatsProvider
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	listener        net.Listener
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

func New(cfg config.ServerConfig, catalog Catalog, provider StatsProvider, gatherer prometheus.Gatherer, logger *slog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("creating listener: %w", err)
	}

	s := &Server{
		catalog:         catalog,
		stats:           provider,
		gatherer:        gatherer,
		logger:          logger,
		listener:        listener,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /v1/namespaces", s.handleListNamespaces)
	mux.HandleFunc("GET /v1/namespaces/{namespace}/tables", s.handleListTables)
	mux.HandleFunc("GET /v1/namespaces/{namespace}/tables/{table}/stats", s.handleTableStats)
	return s.logRequests(mux)
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.listener.Addr().String())
		errCh <- s.httpServer.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
