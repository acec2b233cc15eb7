package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Liveness probe metrics
	HealthChecksTotal   prometheus.Counter
	HealthCheckFailures prometheus.Counter

	// Database session metrics
	SessionsStarted    prometheus.Counter
	SessionsCommitted  prometheus.Counter
	SessionsRolledBack prometheus.Counter

	// Cache probe metrics
	CacheProbes        prometheus.Counter
	CacheProbeFailures prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			HealthChecksTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "stockresearch_health_checks_total",
				Help: "Total number of database liveness probes served by the health route",
			}),
			HealthCheckFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "stockresearch_health_check_failures_total",
				Help: "Total number of failed database liveness probes",
			}),
			SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "stockresearch_db_sessions_started_total",
				Help: "Total number of database sessions begun",
			}),
			SessionsCommitted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "stockresearch_db_sessions_committed_total",
				Help: "Total number of database sessions committed",
			}),
			SessionsRolledBack: promauto.NewCounter(prometheus.CounterOpts{
				Name: "stockresearch_db_sessions_rolled_back_total",
				Help: "Total number of database sessions rolled back",
			}),
			CacheProbes: promauto.NewCounter(prometheus.CounterOpts{
				Name: "stockresearch_cache_probes_total",
				Help: "Total number of cache PING probes",
			}),
			CacheProbeFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "stockresearch_cache_probe_failures_total",
				Help: "Total number of failed cache PING probes",
			}),
			HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "stockresearch_http_requests_total",
				Help: "HTTP requests served by the API, by route, method and status code",
			}, []string{"route", "method", "code"}),
		}
	})
	return metricsInstance
}
