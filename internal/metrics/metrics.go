// Package metrics exposes the planner's Prometheus metrics on a private
// registry.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Route request outcomes.
const (
	OutcomeFound      = "found"
	OutcomeNoPath     = "no_path"
	OutcomeBadRequest = "bad_request"
	OutcomeError      = "error"
)

type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RouteRequestsTotal *prometheus.CounterVec
	RouteDuration      prometheus.Histogram
	RouteExpansions    prometheus.Histogram
	GraphBuildSeconds  prometheus.Gauge
	GraphNodes         prometheus.Gauge
	GraphEdges         *prometheus.GaugeVec
	IngestSkippedTotal *prometheus.CounterVec
	PassCatalogSize    prometheus.Gauge

	// Pass database pool
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	logger *slog.Logger

	collectorStarted atomic.Bool
	cancel           context.CancelFunc
	wg               sync.WaitGroup
}

func New() *Metrics {
	return NewWithLogger(nil)
}

func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "railplanner_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "railplanner_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RouteRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "railplanner_route_requests_total",
			Help: "Route requests by outcome",
		}, []string{"outcome"}),
		RouteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railplanner_route_duration_seconds",
			Help:    "Time spent planning a route",
			Buckets: prometheus.DefBuckets,
		}),
		RouteExpansions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railplanner_route_astar_expansions",
			Help:    "A* node expansions per planned route",
			Buckets: prometheus.ExponentialBuckets(16, 4, 9),
		}),
		GraphBuildSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railplanner_graph_build_seconds",
			Help: "Duration of the last rail graph build",
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railplanner_graph_nodes",
			Help: "Number of nodes in the rail graph",
		}),
		GraphEdges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "railplanner_graph_edges",
			Help: "Number of directed edges in the rail graph",
		}, []string{"kind"}),
		IngestSkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "railplanner_ingest_skipped_total",
			Help: "Malformed features skipped during ingestion",
		}, []string{"kind"}),
		PassCatalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railplanner_pass_catalog_size",
			Help: "Number of fare passes loaded",
		}),
		DBConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railplanner_db_connections_open",
			Help: "Number of open pass database connections",
		}),
		DBConnectionsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railplanner_db_connections_in_use",
			Help: "Number of pass database connections currently in use",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railplanner_db_connections_idle",
			Help: "Number of idle pass database connections",
		}),
		DBWaitSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railplanner_db_wait_seconds_total",
			Help: "Total time blocked waiting for a pass database connection",
		}),
		logger: logger,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RouteRequestsTotal,
		m.RouteDuration,
		m.RouteExpansions,
		m.GraphBuildSeconds,
		m.GraphNodes,
		m.GraphEdges,
		m.IngestSkippedTotal,
		m.PassCatalogSize,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
		m.DBWaitSecondsTotal,
	)

	return m
}

// ObserveRoute records one route request. Expansions are only observed for
// planned routes that ran a search; cached routes report zero.
func (m *Metrics) ObserveRoute(outcome string, elapsed time.Duration, expansions int) {
	m.RouteRequestsTotal.WithLabelValues(outcome).Inc()
	m.RouteDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeFound && expansions > 0 {
		m.RouteExpansions.Observe(float64(expansions))
	}
}

// ObserveGraph records the size and build time of a freshly built graph.
func (m *Metrics) ObserveGraph(nodes, railEdges, transferEdges int, elapsed time.Duration) {
	m.GraphBuildSeconds.Set(elapsed.Seconds())
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.WithLabelValues("rail").Set(float64(railEdges))
	m.GraphEdges.WithLabelValues("transfer").Set(float64(transferEdges))
}

func (m *Metrics) AddIngestSkipped(tracks, stations int) {
	m.IngestSkippedTotal.WithLabelValues("track").Add(float64(tracks))
	m.IngestSkippedTotal.WithLabelValues("station").Add(float64(stations))
}

// StartDBStatsCollector periodically copies the pool statistics of db into the
// DB gauges. Only the first call starts a collector; Shutdown stops it.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}
	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var lastWait time.Duration

	// Register with the WaitGroup before Shutdown can observe cancel.
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil && m.logger != nil {
				m.logger.Error("panic in DB stats collector", "error", r)
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.recordDBStats(db.Stats(), &lastWait)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Metrics) recordDBStats(stats sql.DBStats, lastWait *time.Duration) {
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))

	if delta := stats.WaitDuration - *lastWait; delta > 0 {
		m.DBWaitSecondsTotal.Add(delta.Seconds())
	}
	*lastWait = stats.WaitDuration
}

// Shutdown stops the DB stats collector and waits for it to exit. It is safe
// to call more than once.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
