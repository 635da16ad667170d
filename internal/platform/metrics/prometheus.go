package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the application's Prometheus metrics on a private registry.
type MetricsManager struct {
	Registry             *prometheus.Registry
	ListingsCreatedTotal prometheus.Counter
	ListingUpdatesTotal  prometheus.Counter
	ListingDeletesTotal  prometheus.Counter
	FavoriteActionsTotal *prometheus.CounterVec
	HTTPErrorsTotal      *prometheus.CounterVec
	HTTPRequestLatency   *prometheus.HistogramVec
}

func NewMetricsManager(serviceName string) *MetricsManager {
	namespace := strings.NewReplacer("-", "_", ".", "_").Replace(serviceName)
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		ListingUpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_updates_total",
			Help:      "Total number of listings updated.",
		}),
		ListingDeletesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_deletes_total",
			Help:      "Total number of listings deleted.",
		}),
		FavoriteActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favorite_actions_total",
			Help:      "Total number of favorite and unfavorite actions.",
		}, []string{"action"}),
		HTTPErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP responses with status >= 400 by route.",
		}, []string{"method", "route", "status"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_latency_seconds",
			Help:      "Latency of HTTP requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingUpdatesTotal,
		m.ListingDeletesTotal,
		m.FavoriteActionsTotal,
		m.HTTPErrorsTotal,
		m.HTTPRequestLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsManager) ListingCreated() { m.ListingsCreatedTotal.Inc() }
func (m *MetricsManager) ListingUpdated() { m.ListingUpdatesTotal.Inc() }
func (m *MetricsManager) ListingDeleted() { m.ListingDeletesTotal.Inc() }

func (m *MetricsManager) FavoriteChanged(action string) {
	m.FavoriteActionsTotal.WithLabelValues(action).Inc()
}

func (m *MetricsManager) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	if status >= http.StatusBadRequest {
		m.HTTPErrorsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
}

// NewMetricsServer returns the /metrics server, or nil when port is empty.
func NewMetricsServer(port string, log *logger.Logger, registry *prometheus.Registry) *http.Server {
	if port == "" {
		log.Info("Prometheus metrics server port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	log.Info("Prometheus metrics server configured", zap.String("port", port), zap.String("path", "/metrics"))
	return &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
}
