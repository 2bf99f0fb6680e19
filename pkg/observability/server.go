package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Server exposes health, metrics and any extra viewer endpoints over HTTP
type Server struct {
	httpServer *http.Server
	port       int
	handler    http.Handler
}

// NewServer creates a server; routes are mounted in addition to /health*
// and /metrics.
func NewServer(port int, checker *HealthChecker, routes map[string]http.Handler) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", checker.HealthHandler())
	mux.HandleFunc("/health/live", LivenessHandler())
	mux.HandleFunc("/health/ready", checker.ReadinessHandler())
	mux.Handle("/metrics", MetricsHandler())

	for path, h := range routes {
		mux.Handle(path, h)
	}

	handler := instrument(mux)
	return &Server{
		port:    port,
		handler: handler,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Handler returns the instrumented router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rec.status)
	})
}
