package observability

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the slice of the session provider the collector reads.
type PoolStats interface {
	Stats() sql.DBStats
}

// PoolCollector exports connection pool gauges on demand, reading the pool
// counters only when /metrics is scraped.
type PoolCollector struct {
	pool PoolStats

	maxOpenDesc      *prometheus.Desc
	openDesc         *prometheus.Desc
	inUseDesc        *prometheus.Desc
	idleDesc         *prometheus.Desc
	waitCountDesc    *prometheus.Desc
	waitDurationDesc *prometheus.Desc
}

// NewPoolCollector creates a collector over the given pool.
func NewPoolCollector(pool PoolStats) *PoolCollector {
	return &PoolCollector{
		pool: pool,
		maxOpenDesc: prometheus.NewDesc(
			"stockresearch_db_pool_max_open_connections",
			"Configured connection ceiling (base pool size plus overflow)",
			nil, nil,
		),
		openDesc: prometheus.NewDesc(
			"stockresearch_db_pool_open_connections",
			"Connections currently established, in use or idle",
			nil, nil,
		),
		inUseDesc: prometheus.NewDesc(
			"stockresearch_db_pool_in_use_connections",
			"Connections currently held by sessions",
			nil, nil,
		),
		idleDesc: prometheus.NewDesc(
			"stockresearch_db_pool_idle_connections",
			"Connections currently idle in the pool",
			nil, nil,
		),
		waitCountDesc: prometheus.NewDesc(
			"stockresearch_db_pool_wait_count_total",
			"Total number of acquisitions that had to wait for a connection",
			nil, nil,
		),
		waitDurationDesc: prometheus.NewDesc(
			"stockresearch_db_pool_wait_duration_seconds_total",
			"Total time spent waiting for a connection",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxOpenDesc
	ch <- c.openDesc
	ch <- c.inUseDesc
	ch <- c.idleDesc
	ch <- c.waitCountDesc
	ch <- c.waitDurationDesc
}

// Collect implements prometheus.Collector
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Stats()

	ch <- prometheus.MustNewConstMetric(c.maxOpenDesc, prometheus.GaugeValue, float64(stats.MaxOpenConnections))
	ch <- prometheus.MustNewConstMetric(c.openDesc, prometheus.GaugeValue, float64(stats.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUseDesc, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stats.Idle))
	ch <- prometheus.MustNewConstMetric(c.waitCountDesc, prometheus.CounterValue, float64(stats.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitDurationDesc, prometheus.CounterValue, stats.WaitDuration.Seconds())
}
