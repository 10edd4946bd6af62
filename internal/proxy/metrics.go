package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nodpi-proxy/internal/ui"
)

var (
	// MetricConnectionsTotal counts handled connections by verdict.
	MetricConnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodpi_connections_total",
		Help: "Total handled connections by verdict",
	}, []string{"verdict"})

	// MetricActiveConns tracks current active connections.
	MetricActiveConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodpi_active_conns",
		Help: "Current active connections",
	})

	// MetricBytesTotal counts tunneled bytes by direction.
	MetricBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodpi_bytes_total",
		Help: "Total bytes transferred",
	}, []string{"direction"})

	// MetricConnectionDuration tracks connection duration.
	MetricConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodpi_connection_duration_seconds",
		Help:    "Connection duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// Verdict labels for MetricConnectionsTotal.
const (
	verdictAllowed    = "allowed"
	verdictFragmented = "fragmented"
	verdictError      = "error"
)

// MetricsServer serves prometheus metrics on its own listener.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer creates a metrics server bound to addr.
func NewMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start begins serving metrics (non-blocking).
func (m *MetricsServer) Start() {
	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ui.LogStatus("error", "Metrics server error: "+err.Error())
		}
	}()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.server.Shutdown(shutdownCtx)
}
