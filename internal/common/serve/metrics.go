package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/mrscrape/docbench/internal/common/logging"
)

const shutdownTimeout = 5 * time.Second

// MetricsHandler exposes the gatherer on /metrics plus a trivial /health endpoint.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// ServeMetrics starts an HTTP server for the gatherer on the given port and returns a func that shuts it down.
// The listener is bound before returning so a port conflict is reported to the caller.
func ServeMetrics(port uint16, gatherer prometheus.Gatherer) (func(), error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	server := &http.Server{
		Handler:           MetricsHandler(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Serving metrics on %s", listener.Addr())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithStacktrace(err).Error("metrics server failure")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("metrics server did not shut down cleanly")
		}
	}, nil
}
