// Package metrics exposes the store's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for a scan result
const (
	OutcomeClean    = "clean"
	OutcomeInfected = "infected"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	scansRecorded   *prometheus.CounterVec
	recordDuration  prometheus.Histogram
	threatUpserts   prometheus.Counter
	refreshes       *prometheus.CounterVec
	queries         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	retentionPurged *prometheus.CounterVec
	backups         *prometheus.CounterVec
}

// New creates the collectors under namespace and registers them on reg
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scansRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_recorded_total",
			Help:      "Scan results handed to the result writer, by scanner and outcome.",
		}, []string{"scanner", "outcome"}),
		recordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_duration_seconds",
			Help:      "Time spent persisting one scan result.",
			Buckets:   prometheus.DefBuckets,
		}),
		threatUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threat_upserts_total",
			Help:      "Threat rows created or incremented.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistics_refresh_total",
			Help:      "Daily statistics recomputations, by result.",
		}, []string{"result"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Read-side queries served, by query.",
		}, []string{"query"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		retentionPurged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_purged_rows_total",
			Help:      "Rows removed by retention, by table.",
		}, []string{"table"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backups attempted, by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.scansRecorded, m.recordDuration, m.threatUpserts, m.refreshes, m.queries,
		m.httpRequests, m.httpDuration, m.retentionPurged, m.backups,
	)
	return m
}

// ScanRecorded counts one result and observes how long persisting it took
func (m *Metrics) ScanRecorded(scanner, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scansRecorded.WithLabelValues(scanner, outcome).Inc()
	m.recordDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ThreatUpserted() {
	if m == nil {
		return
	}
	m.threatUpserts.Inc()
}

func (m *Metrics) StatisticsRefreshed(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Query(name string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(name).Inc()
}

func (m *Metrics) Purged(files, scans, detections int64) {
	if m == nil {
		return
	}
	m.retentionPurged.WithLabelValues("files").Add(float64(files))
	m.retentionPurged.WithLabelValues("scans").Add(float64(scans))
	m.retentionPurged.WithLabelValues("detections").Add(float64(detections))
}

func (m *Metrics) BackupFinished(status string) {
	if m == nil {
		return
	}
	m.backups.WithLabelValues(status).Inc()
}

// Middleware records request counts and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
