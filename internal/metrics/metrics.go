// Package metrics exposes the process's Prometheus registry over HTTP.
// Collectors are registered by the packages that own them.
package metrics

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luki/simtemp/internal/defaults"
	"github.com/luki/simtemp/internal/errors"
)

// Handler serves /metrics and /healthz.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Server is a running metrics endpoint.
type Server struct {
	srv  *http.Server
	addr string
	done chan struct{}
}

// Start listens on addr and serves in the background. The listener is bound
// before Start returns, so a bad address fails here.
func Start(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeIO, "metrics listen failed", err,
			map[string]any{"addr": addr})
	}

	s := &Server{
		srv:  &http.Server{Handler: Handler()},
		addr: ln.Addr().String(),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server exited", slog.String("error", err.Error()))
		}
	}()
	slog.Info("metrics server listening", slog.String("addr", s.addr))
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.addr
}

// Shutdown stops the server, waiting up to the default shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.MetricsShutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
