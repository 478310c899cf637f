// Package server is the HTTP surface of pigeonhole: the prediction form,
// the predict endpoint, and the Prometheus exposition.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/ferndale/pigeonhole/internal/metrics"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Predictor is the classification engine the HTTP layer fronts.
type Predictor interface {
	Predict(text string) (string, error)
}

// Server serves the pigeonhole HTTP endpoints. All collaborators are
// injected at construction; handlers share nothing through globals.
type Server struct {
	predictor  Predictor
	metrics    *metrics.Metrics
	logger     *slog.Logger
	httpServer *http.Server
}

// New wires the handlers and middleware onto addr.
func New(addr string, predictor Predictor, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		predictor: predictor,
		metrics:   m,
		logger:    logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.requestID(s.accessLog(s.routes())),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", s.instrument("/", http.HandlerFunc(s.handleHome)))
	mux.Handle("POST /predict", s.instrument("/predict", http.HandlerFunc(s.handlePredict)))
	mux.Handle("GET /metrics", s.instrument("/metrics", s.metrics.Handler()))
	return mux
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
