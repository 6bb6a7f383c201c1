// Package server exposes a schedule board over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/slotgrid/pkg/config"
	"github.com/Sumatoshi-tech/slotgrid/pkg/observability"
	"github.com/Sumatoshi-tech/slotgrid/pkg/render"
	"github.com/Sumatoshi-tech/slotgrid/pkg/schedule"
)

// ErrNotServing is reported by the readiness check before Serve starts and
// after shutdown begins.
var ErrNotServing = errors.New("server is not serving")

// Options wires optional collaborators into a Server. Zero values are safe.
type Options struct {
	Tracer  trace.Tracer
	RED     *observability.REDMetrics
	Metrics http.Handler
	Logger  *slog.Logger
	Render  render.Options
}

// Server serves one board.
type Server struct {
	board   *schedule.Board
	handler http.Handler
	logger  *slog.Logger
	render  render.Options
	serving atomic.Bool
}

// New builds the API for board.
func New(board *schedule.Board, opts Options) *Server {
	srv := &Server{
		board:  board,
		logger: observability.Component(opts.Logger, "server"),
		render: opts.Render,
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /slots", srv.handleList)
	mux.HandleFunc("POST /slots", srv.handleCreate)
	mux.HandleFunc("PUT /slots", srv.handleReplace)
	mux.HandleFunc("DELETE /slots", srv.handleDeleteRange)
	mux.HandleFunc("GET /slots/{key}", srv.handleGet)
	mux.HandleFunc("PUT /slots/{key}", srv.handlePut)
	mux.HandleFunc("DELETE /slots/{key}", srv.handleDelete)
	mux.HandleFunc("GET /grid", srv.handleGrid)
	mux.HandleFunc("GET /at", srv.handleAt)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(srv.ready))

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	srv.handler = observability.HTTPMiddleware(tracer, opts.RED, mux)

	return srv
}

// Handler returns the instrumented route table.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) ready(_ context.Context) error {
	if !s.serving.Load() {
		return ErrNotServing
	}

	return nil
}

// Run listens on cfg.Addr() and serves until ctx is done.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	return s.Serve(ctx, ln, cfg)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg config.ServerConfig) error {
	httpSrv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	s.serving.Store(true)
	s.logger.InfoContext(ctx, "serving", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		s.serving.Store(false)

		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.serving.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	err := httpSrv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.InfoContext(shutdownCtx, "stopped")

	return nil
}
