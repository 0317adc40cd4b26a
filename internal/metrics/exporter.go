package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/brokerd/internal/logfields"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter serves the registry's current state to a pull-based scraper on
// /metrics (OpenMetrics enabled) plus a /health probe. It runs for the
// process lifetime; there is no cancellation contract short of Stop at
// shutdown. A bind failure is reported once from Start and is non-fatal to
// the broker: the caller keeps running without an exporter.
type Exporter struct {
	addr     string
	server   *http.Server
	listener net.Listener
}

// NewExporter builds an exporter for reg bound to addr.
func NewExporter(addr string, reg *prometheus.Registry) *Exporter {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Exporter{
		addr: addr,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds addr and begins serving scrapes on a background goroutine.
// The bind happens synchronously so address-in-use and permission errors
// surface here exactly once.
func (e *Exporter) Start() error {
	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return fmt.Errorf("failed to bind metrics endpoint %s: %w", e.addr, err)
	}
	e.listener = ln

	go func() {
		slog.Info("metrics exporter listening", logfields.Addr(ln.Addr().String()))
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics exporter stopped unexpectedly", logfields.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address, useful when addr was ":0".
func (e *Exporter) Addr() string {
	if e.listener == nil {
		return e.addr
	}
	return e.listener.Addr().String()
}

// Stop gracefully shuts the exporter down. Safe to call when Start failed.
func (e *Exporter) Stop(ctx context.Context) error {
	if e.listener == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
