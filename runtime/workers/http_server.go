package workers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// HTTPServerWorker serves the REST and websocket endpoints until its context ends,
// then drains in-flight requests within shutdownTimeout.
type HTTPServerWorker struct {
	log             *slog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewHTTPServerWorker(log *slog.Logger, addr string, handler http.Handler, shutdownTimeout time.Duration) *HTTPServerWorker {
	return &HTTPServerWorker{
		log: log,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// OnShutdown registers f to run when the server shuts down.
// Hijacked websocket connections are not tracked by http.Server, they are closed here.
func (w *HTTPServerWorker) OnShutdown(f func()) *HTTPServerWorker {
	w.server.RegisterOnShutdown(f)
	return w
}

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", w.server.Addr, err)
	}
	w.log.Info("HTTP server listening", "addr", listener.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- w.server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.shutdownTimeout)
	defer cancel()
	w.log.Info("HTTP server shutting down", "timeout", w.shutdownTimeout)
	if err := w.server.Shutdown(shutdownCtx); err != nil {
		w.log.Error("HTTP server shutdown", "error", err)
	}
	return nil
}
